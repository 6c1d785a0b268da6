package session

import (
	"context"
	"sync"
	"time"

	"github.com/JonMunkholm/contactsel/internal/core"
)

// Session is one browser's view state. All transitions go through Apply or
// the decode task, never concurrently.
type Session struct {
	id string

	mu       sync.Mutex
	state    core.State
	task     *decodeTask
	lastErr  error
	lastSeen time.Time
}

// decodeTask tracks one in-flight upload. done is closed after the result
// has been applied to the session.
type decodeTask struct {
	file    string
	started time.Time
	done    chan struct{}
}

// Snapshot is a consistent copy of a session for rendering.
type Snapshot struct {
	ID          string
	State       core.State
	Pending     bool
	PendingFile string
	LastError   error
}

func newSession(id string) *Session {
	return &Session{id: id, lastSeen: time.Now()}
}

// ID returns the session identifier used in the cookie.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns the current state along with decode status.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:        s.id,
		State:     s.state,
		LastError: s.lastErr,
	}
	if s.task != nil {
		snap.Pending = true
		snap.PendingFile = s.task.file
	}
	return snap
}

// State returns the current selection state.
func (s *Session) State() core.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Apply runs a transition against the current state. On error the state is
// left as it was and returned alongside the error.
func (s *Session) Apply(fn func(core.State) (core.State, error)) (core.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = time.Now()
	next, err := fn(s.state)
	if err != nil {
		return s.state, err
	}
	s.state = next
	return next, nil
}

// Pending reports whether a decode is in flight.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task != nil
}

// Wait blocks until the in-flight decode (if any) has been applied.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	task := s.task
	s.mu.Unlock()

	if task == nil {
		return nil
	}
	select {
	case <-task.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// idleSince reports whether the session was last used before cutoff and has
// nothing in flight.
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task == nil && s.lastSeen.Before(cutoff)
}
