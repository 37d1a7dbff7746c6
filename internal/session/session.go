// Package session owns one Plan per interactive context. Each session holds
// its profile behind a mutex; no plan state is shared between sessions.
package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/metrics"
	"github.com/rgehrsitz/corpusplan/internal/store"
	"github.com/rs/zerolog"
)

// DefaultTTL is how long an idle session survives.
const DefaultTTL = 2 * time.Hour

// ErrNotFound is returned for an unknown or expired session id.
var ErrNotFound = errors.New("session not found")

// Session is one user's (or guest's) working copy of a profile.
type Session struct {
	ID        string
	User      domain.User
	CreatedAt time.Time

	mu       sync.Mutex
	profile  *domain.UserProfile
	lastSeen time.Time
}

// Do runs fn with exclusive access to the session's profile.
func (s *Session) Do(fn func(p *domain.UserProfile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.profile)
}

// Snapshot returns an independent copy of the profile.
func (s *Session) Snapshot() *domain.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Manager tracks live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	store    store.Store
	metrics  *metrics.Registry
	log      zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the idle timeout.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithStore saves registered users' profiles when their session expires.
// Guest sessions are never persisted.
func WithStore(s store.Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithMetrics publishes session counts.
func WithMetrics(r *metrics.Registry) Option {
	return func(m *Manager) { m.metrics = r }
}

// WithLogger sets the manager logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l.With().Str("component", "sessions").Logger() }
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		ttl:      DefaultTTL,
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a session for user. A guest with no username gets a
// generated one. A nil profile starts empty.
func (m *Manager) Create(user domain.User, profile *domain.UserProfile) *Session {
	id := uuid.NewString()
	if user.IsGuest && user.Username == "" {
		user.Username = "guest-" + id[:8]
	}
	if profile == nil {
		profile = &domain.UserProfile{}
	}
	profile.Username = user.Username

	now := m.now()
	s := &Session{
		ID:        id,
		User:      user,
		CreatedAt: now,
		profile:   profile,
		lastSeen:  now,
	}

	m.mu.Lock()
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(n)
	m.log.Debug().Str("session", id).Str("user", user.Username).Bool("guest", user.IsGuest).Msg("Session created")
	return s
}

// Get returns a live session and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	now := m.now()
	if now.Sub(s.idleSince()) > m.ttl {
		return nil, ErrNotFound
	}
	s.touch(now)
	return s, nil
}

// Delete ends a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	m.metrics.SetActiveSessions(n)
}

// Len returns the number of tracked sessions, expired or not.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the tracked session ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Sweep removes sessions idle longer than the TTL and returns how many were
// dropped. Registered users are saved first when a store is configured; a
// failed save keeps the session for the next sweep.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	now := m.now()

	m.mu.RLock()
	var expired []*Session
	for _, s := range m.sessions {
		if now.Sub(s.idleSince()) > m.ttl {
			expired = append(expired, s)
		}
	}
	m.mu.RUnlock()

	var firstErr error
	removed := 0
	for _, s := range expired {
		if m.store != nil && !s.User.IsGuest {
			if err := m.store.Save(ctx, s.Snapshot()); err != nil {
				m.log.Warn().Err(err).Str("session", s.ID).Msg("Failed to save expiring session")
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}
		m.mu.Lock()
		delete(m.sessions, s.ID)
		m.mu.Unlock()
		removed++
	}

	m.metrics.RecordExpired(removed)
	m.metrics.SetActiveSessions(m.Len())
	if removed > 0 {
		m.log.Info().Int("removed", removed).Msg("Expired sessions swept")
	}
	return removed, firstErr
}

// SweepJob adapts Manager.Sweep to the scheduler's Job interface.
type SweepJob struct {
	manager *Manager
	timeout time.Duration
}

// NewSweepJob creates a sweep job for m.
func NewSweepJob(m *Manager) *SweepJob {
	return &SweepJob{manager: m, timeout: 30 * time.Second}
}

// Run executes one sweep.
func (j *SweepJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	_, err := j.manager.Sweep(ctx)
	return err
}

// Name returns the job name for scheduling and logging.
func (j *SweepJob) Name() string {
	return "session_sweep"
}
