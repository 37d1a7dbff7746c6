package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/metrics"
	"github.com/rgehrsitz/corpusplan/internal/scheduler"
	"github.com/rgehrsitz/corpusplan/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) (*domain.UserProfile, error) {
	return nil, store.ErrNotFound
}

func (failingStore) Save(context.Context, *domain.UserProfile) error {
	return errors.New("disk full")
}

func TestManager_CreateAndGet(t *testing.T) {
	m := NewManager()

	guest := m.Create(domain.User{IsGuest: true}, nil)
	assert.True(t, strings.HasPrefix(guest.User.Username, "guest-"))
	assert.Equal(t, guest.User.Username, guest.Snapshot().Username)

	got, err := m.Get(guest.ID)
	require.NoError(t, err)
	assert.Same(t, guest, got)

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	other := m.Create(domain.User{Username: "priya"}, &domain.UserProfile{Country: "IN"})
	assert.NotEqual(t, guest.ID, other.ID)
	assert.Equal(t, 2, m.Len())
	assert.Len(t, m.IDs(), 2)

	m.Delete(guest.ID)
	_, err = m.Get(guest.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSession_DoAndSnapshotIsolation(t *testing.T) {
	m := NewManager()
	s := m.Create(domain.User{Username: "priya"}, &domain.UserProfile{Country: "IN", Corpus: domain.Corpus{"PF": decimal.NewFromInt(10)}})

	snap := s.Snapshot()
	snap.Corpus["PF"] = decimal.NewFromInt(99)

	require.NoError(t, s.Do(func(p *domain.UserProfile) error {
		assert.Equal(t, "10", p.Corpus["PF"].String(), "snapshot edits do not leak")
		p.Age = 40
		return nil
	}))
	assert.Equal(t, 40, s.Snapshot().Age)

	boom := errors.New("boom")
	assert.ErrorIs(t, s.Do(func(*domain.UserProfile) error { return boom }), boom)
}

func TestManager_ExpiryAndSweep(t *testing.T) {
	clock := newClock()
	backing := store.NewMemoryStore()
	reg := metrics.NewRegistry()
	m := NewManager(WithTTL(time.Hour), WithClock(clock.Now), WithStore(backing), WithMetrics(reg))

	guest := m.Create(domain.User{IsGuest: true}, nil)
	m.Create(domain.User{Username: "omar"}, &domain.UserProfile{Country: "UK", Age: 50})
	fresh := m.Create(domain.User{Username: "zoe"}, &domain.UserProfile{Country: "US"})

	clock.Advance(50 * time.Minute)
	_, err := m.Get(fresh.ID)
	require.NoError(t, err, "access refreshes the idle timer")

	clock.Advance(20 * time.Minute)
	_, err = m.Get(guest.ID)
	assert.ErrorIs(t, err, ErrNotFound, "idle past ttl")

	removed, err := m.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{fresh.ID}, m.IDs())
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.SessionsExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.ActiveSessions))

	saved, err := backing.Load(context.Background(), "omar")
	require.NoError(t, err, "registered users are saved on expiry")
	assert.Equal(t, 50, saved.Age)

	_, err = backing.Load(context.Background(), guest.User.Username)
	assert.ErrorIs(t, err, store.ErrNotFound, "guests are never persisted")
}

func TestManager_SweepKeepsSessionWhenSaveFails(t *testing.T) {
	clock := newClock()
	m := NewManager(WithTTL(time.Minute), WithClock(clock.Now), WithStore(failingStore{}))
	s := m.Create(domain.User{Username: "omar"}, &domain.UserProfile{Country: "UK"})

	clock.Advance(2 * time.Minute)
	removed, err := m.Sweep(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, removed)
	assert.Equal(t, []string{s.ID}, m.IDs())
}

func TestSweepJob_WithScheduler(t *testing.T) {
	clock := newClock()
	m := NewManager(WithTTL(time.Minute), WithClock(clock.Now))
	m.Create(domain.User{IsGuest: true}, nil)
	clock.Advance(time.Hour)

	job := NewSweepJob(m)
	assert.Equal(t, "session_sweep", job.Name())

	sched := scheduler.New(zerolog.Nop())
	require.NoError(t, sched.AddJob("@every 1m", job))
	assert.Equal(t, 1, sched.Entries())
	assert.Error(t, sched.AddJob("not a schedule", job))

	require.NoError(t, sched.RunNow(job))
	assert.Equal(t, 0, m.Len())
}
