// Package logging builds the zerolog logger shared by the CLI, the HTTP
// server and background jobs.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // Enable pretty console output
	// Out defaults to stderr so command output on stdout stays clean.
	Out io.Writer
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New creates a new structured logger
func New(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Out
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()
}

// SetGlobalLogger sets the package-level logger
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}

// Adapter exposes a zerolog logger through printf-style methods.
type Adapter struct {
	log zerolog.Logger
}

// NewAdapter wraps l.
func NewAdapter(l zerolog.Logger) *Adapter {
	return &Adapter{log: l}
}

func (a *Adapter) Debugf(format string, args ...interface{}) {
	a.log.Debug().Msg(fmt.Sprintf(format, args...))
}

func (a *Adapter) Infof(format string, args ...interface{}) {
	a.log.Info().Msg(fmt.Sprintf(format, args...))
}

func (a *Adapter) Warnf(format string, args ...interface{}) {
	a.log.Warn().Msg(fmt.Sprintf(format, args...))
}

func (a *Adapter) Errorf(format string, args ...interface{}) {
	a.log.Error().Msg(fmt.Sprintf(format, args...))
}
