package calculator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"calcsession/internal/engine"
	"calcsession/internal/observability"
)

var (
	// ErrSessionNotFound is returned for unknown or evicted session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTooManySessions is returned by Create when the store is full.
	ErrTooManySessions = errors.New("too many sessions")
)

// StoreOptions configures a Store.
type StoreOptions struct {
	// TTL is how long a session may stay idle before Sweep evicts it.
	TTL time.Duration
	// MaxSessions bounds the number of live sessions.
	MaxSessions int
	// Radians starts new sessions in radian mode instead of degrees.
	Radians bool
}

// slot guards one engine session. The engine is single-caller, so every
// command runs with mu held.
type slot struct {
	mu       sync.Mutex
	session  *engine.Session
	lastUsed time.Time
}

// Store owns the live calculator sessions, keyed by UUID.
type Store struct {
	eval *engine.Evaluator
	opts StoreOptions
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*slot
}

// NewStore returns an empty store whose sessions share eval.
func NewStore(eval *engine.Evaluator, opts StoreOptions) *Store {
	return &Store{
		eval:     eval,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*slot),
	}
}

// Evaluator returns the evaluator shared by all sessions.
func (s *Store) Evaluator() *engine.Evaluator {
	return s.eval
}

// Create starts a new session and returns its id and initial snapshot.
func (s *Store) Create(ctx context.Context) (string, engine.Snapshot, error) {
	session := engine.NewSession(s.eval)
	session.SetDegrees(!s.opts.Radians)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.MaxSessions > 0 && len(s.sessions) >= s.opts.MaxSessions {
		return "", engine.Snapshot{}, ErrTooManySessions
	}

	id := uuid.NewString()
	s.sessions[id] = &slot{session: session, lastUsed: s.now()}
	sessionsActive.Add(ctx, 1)

	return id, session.Snapshot(), nil
}

// Do runs fn against session id with the session locked and returns the
// snapshot taken afterwards. The snapshot is returned even when fn fails.
func (s *Store) Do(id string, fn func(*engine.Session) error) (engine.Snapshot, error) {
	s.mu.Lock()
	sl, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return engine.Snapshot{}, ErrSessionNotFound
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.lastUsed = s.now()
	err := fn(sl.session)
	return sl.session.Snapshot(), err
}

// Snapshot returns the current view of session id.
func (s *Store) Snapshot(id string) (engine.Snapshot, error) {
	return s.Do(id, func(*engine.Session) error { return nil })
}

// Delete drops session id and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	sessionsActive.Add(ctx, -1)
	return true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Sweep(ctx context.Context) int {
	if s.opts.TTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.opts.TTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sl := range s.sessions {
		// A busy slot is in use right now, so it is not idle.
		if !sl.mu.TryLock() {
			continue
		}
		idle := sl.lastUsed.Before(cutoff)
		sl.mu.Unlock()

		if idle {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		sessionsActive.Add(ctx, int64(-evicted))
	}
	return evicted
}

// Run sweeps every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(ctx); n > 0 {
				observability.Logger.Info("evicted idle sessions",
					zap.Int("evicted", n),
					zap.Int("remaining", s.Len()),
				)
			}
		}
	}
}
