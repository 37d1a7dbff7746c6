// Package store persists user profiles keyed by username. Three backends
// share one interface: the remote HTTP backend, a local SQLite file and
// Redis.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rgehrsitz/corpusplan/internal/domain"
)

// ErrNotFound is returned by Load when nothing is stored for a username.
var ErrNotFound = errors.New("user data not found")

// ErrNoUsername is returned when a profile without a username is saved.
var ErrNoUsername = errors.New("username is required")

// Store loads and saves user_data envelopes.
type Store interface {
	Load(ctx context.Context, username string) (*domain.UserProfile, error)
	// Save persists profile under profile.Username. Empty profiles are
	// skipped without error.
	Save(ctx context.Context, profile *domain.UserProfile) error
}

// Kind names a store backend in configuration.
type Kind string

const (
	KindHTTP   Kind = "http"
	KindSQLite Kind = "sqlite"
	KindRedis  Kind = "redis"
	KindMemory Kind = "memory"
)

// ParseKind validates a backend name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindHTTP, KindSQLite, KindRedis, KindMemory:
		return k, nil
	case "":
		return KindMemory, nil
	default:
		return "", fmt.Errorf("unknown store %q", s)
	}
}

func encode(profile *domain.UserProfile) ([]byte, error) {
	data, err := json.Marshal(profile.WireMap())
	if err != nil {
		return nil, fmt.Errorf("encode user data: %w", err)
	}
	return data, nil
}

// checkSave reports whether profile should be written.
func checkSave(profile *domain.UserProfile) (bool, error) {
	if profile.IsZero() {
		return false, nil
	}
	if strings.TrimSpace(profile.Username) == "" {
		return false, ErrNoUsername
	}
	return true, nil
}
