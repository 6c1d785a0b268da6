// Package session keeps per-browser selection state in memory and runs
// spreadsheet decodes as explicit asynchronous tasks.
//
// A session holds exactly one core.State. Uploads start a decode task; while
// it runs the session reports Pending and refuses a second upload with
// ErrDecodePending. When the task finishes the state is replaced by a fresh
// import, or, on failure, left untouched with the error recorded.
//
// Nothing is persisted. Idle sessions are evicted by a janitor goroutine and
// everything is dropped when the process exits.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/contactsel/internal/core"
)

var (
	ErrDecodePending   = errors.New("decode already in progress")
	ErrSessionNotFound = errors.New("session not found")
	ErrStoreClosed     = errors.New("session store closed")
)

// Decoder turns an uploaded file into rows.
type Decoder interface {
	Decode(ctx context.Context, name string, data []byte) ([]core.Row, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(ctx context.Context, name string, data []byte) ([]core.Row, error)

// Decode calls f.
func (f DecoderFunc) Decode(ctx context.Context, name string, data []byte) ([]core.Row, error) {
	return f(ctx, name, data)
}

// Options configures a Store. Zero values take the defaults.
type Options struct {
	IdleTTL              time.Duration
	JanitorInterval      time.Duration
	DecodeTimeout        time.Duration
	MaxConcurrentDecodes int
	MaxWait              time.Duration
}

const (
	DefaultIdleTTL         = 2 * time.Hour
	DefaultJanitorInterval = 5 * time.Minute
	DefaultDecodeTimeout   = 2 * time.Minute
)

func (o Options) withDefaults() Options {
	if o.IdleTTL <= 0 {
		o.IdleTTL = DefaultIdleTTL
	}
	if o.JanitorInterval <= 0 {
		o.JanitorInterval = DefaultJanitorInterval
	}
	if o.DecodeTimeout <= 0 {
		o.DecodeTimeout = DefaultDecodeTimeout
	}
	return o
}

// Store owns every live session.
type Store struct {
	decoder Decoder
	limiter *DecodeLimiter
	opts    Options

	// mu also guards closed, so no decode is added once Close has begun.
	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool

	ctx         context.Context
	cancel      context.CancelFunc
	decodes     sync.WaitGroup
	inflight    atomic.Int32
	janitorDone chan struct{}
	closeOnce   sync.Once
}

// NewStore creates a store and starts its janitor. Call Close to stop it.
func NewStore(decoder Decoder, opts Options) *Store {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	st := &Store{
		decoder:     decoder,
		limiter:     NewDecodeLimiter(opts.MaxConcurrentDecodes, opts.MaxWait),
		opts:        opts,
		sessions:    make(map[string]*Session),
		ctx:         ctx,
		cancel:      cancel,
		janitorDone: make(chan struct{}),
	}
	go st.janitor()
	return st
}

// Create registers a new empty session.
func (st *Store) Create() *Session {
	s := newSession(uuid.NewString())

	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()

	slog.Debug("session created", "session", ShortID(s.id))
	return s
}

// Get returns a live session and marks it used.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, ShortID(id))
	}
	s.touch()
	return s, nil
}

// GetOrCreate returns the session for id, or a new one when id is unknown
// (expired cookie, restarted process). created reports which happened.
func (st *Store) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, err := st.Get(id); err == nil {
			return s, false
		}
	}
	return st.Create(), true
}

// Delete drops a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Limiter exposes the decode limiter for status reporting.
func (st *Store) Limiter() *DecodeLimiter {
	return st.limiter
}

// StartDecode begins decoding data into sess in the background.
func (st *Store) StartDecode(sess *Session, name string, data []byte) error {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.closed {
		return ErrStoreClosed
	}

	sess.mu.Lock()
	if sess.task != nil {
		sess.mu.Unlock()
		return ErrDecodePending
	}
	task := &decodeTask{file: name, started: time.Now(), done: make(chan struct{})}
	sess.task = task
	sess.lastErr = nil
	sess.lastSeen = task.started
	sess.mu.Unlock()

	st.decodes.Add(1)
	st.inflight.Add(1)
	go st.runDecode(sess, task, data)
	return nil
}

func (st *Store) runDecode(sess *Session, task *decodeTask, data []byte) {
	defer st.decodes.Done()
	defer st.inflight.Add(-1)
	defer close(task.done)

	logger := slog.With("session", ShortID(sess.id), "file", task.file)

	ctx, cancel := context.WithTimeout(st.ctx, st.opts.DecodeTimeout)
	defer cancel()

	rows, err := st.decode(ctx, task.file, data)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.task = nil
	sess.lastSeen = time.Now()
	if err != nil {
		sess.lastErr = err
		logger.Warn("decode failed, keeping previous contacts",
			"error", err,
			"duration_ms", time.Since(task.started).Milliseconds(),
		)
		return
	}

	importID := uuid.NewString()
	sess.state = sess.state.ImportAll(importID, task.file, rows)
	logger.Info("contacts imported",
		"import", ShortID(importID),
		"contacts", len(rows),
		"duration_ms", time.Since(task.started).Milliseconds(),
	)
}

func (st *Store) decode(ctx context.Context, name string, data []byte) ([]core.Row, error) {
	if err := st.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer st.limiter.Release()
	return st.decoder.Decode(ctx, name, data)
}

// PendingDecodes returns the number of decode tasks not yet finished.
func (st *Store) PendingDecodes() int {
	return int(st.inflight.Load())
}

// WaitForDecodes blocks until no decode is running or ctx ends.
func (st *Store) WaitForDecodes(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for st.PendingDecodes() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// EvictIdle removes sessions unused since cutoff. Sessions with a decode in
// flight are kept.
func (st *Store) EvictIdle(cutoff time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	evicted := 0
	for id, s := range st.sessions {
		if s.idleSince(cutoff) {
			delete(st.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (st *Store) janitor() {
	defer close(st.janitorDone)

	ticker := time.NewTicker(st.opts.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-st.ctx.Done():
			return
		case now := <-ticker.C:
			if n := st.EvictIdle(now.Add(-st.opts.IdleTTL)); n > 0 {
				slog.Info("evicted idle sessions", "count", n, "remaining", st.Len())
			}
		}
	}
}

// Close cancels running decodes, stops the janitor and waits for both.
func (st *Store) Close() {
	st.closeOnce.Do(func() {
		st.mu.Lock()
		st.closed = true
		st.mu.Unlock()

		st.cancel()
		<-st.janitorDone
		st.decodes.Wait()
	})
}
