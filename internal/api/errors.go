package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rgehrsitz/corpusplan/internal/instruments"
	"github.com/rgehrsitz/corpusplan/internal/planner"
	"github.com/rgehrsitz/corpusplan/internal/projection"
	"github.com/rgehrsitz/corpusplan/internal/scenario"
	"github.com/rgehrsitz/corpusplan/internal/session"
	"github.com/rgehrsitz/corpusplan/internal/store"
)

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

// statusFor maps domain errors onto HTTP statuses. User errors are 4xx;
// collaborator failures are 5xx.
func statusFor(err error) int {
	var se *projection.StatusError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, instruments.ErrUnsupportedCountry),
		errors.Is(err, planner.ErrUnknownInstrument),
		errors.Is(err, scenario.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, planner.ErrGuestForbidden):
		return http.StatusForbidden
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, scenario.ErrUnknownScenario),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scenario.ErrScenarioLimit),
		errors.Is(err, scenario.ErrBaseScenario):
		return http.StatusConflict
	case errors.As(err, &se):
		return http.StatusBadGateway
	case errors.Is(err, projection.ErrBackendUnavailable),
		errors.Is(err, planner.ErrNoProjector),
		errors.Is(err, planner.ErrNoStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// fail maps err to a status and writes it.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.log.Error().Err(err).Int("status", status).Msg("Request failed")
	}
	s.writeError(w, status, err.Error())
}
