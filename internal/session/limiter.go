package session

// limiter.go bounds how many spreadsheet decodes run at once across all
// sessions. Decodes hold a whole file in memory, so a burst of uploads from
// many tabs is queued here rather than decoded in parallel.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyDecodes is returned when every decode slot stays busy for the
// whole wait period.
var ErrTooManyDecodes = errors.New("too many decodes in progress, please try again later")

const (
	// DefaultMaxConcurrentDecodes is the default limit for parallel decodes.
	DefaultMaxConcurrentDecodes = 4

	// DefaultMaxWait is how long a decode waits for a slot before giving up.
	DefaultMaxWait = 30 * time.Second
)

// DecodeLimiter is a counting semaphore for decode work.
type DecodeLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewDecodeLimiter allows at most maxConcurrent decodes at a time. Callers
// that cannot get a slot within maxWait receive ErrTooManyDecodes.
func NewDecodeLimiter(maxConcurrent int, maxWait time.Duration) *DecodeLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentDecodes
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &DecodeLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire blocks until a slot frees up, maxWait elapses, or ctx ends.
// A successful Acquire must be paired with Release.
func (l *DecodeLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyDecodes
	}
}

// Release frees a slot taken by Acquire.
func (l *DecodeLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

// ActiveCount returns the number of decodes holding a slot.
func (l *DecodeLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Available returns the number of free slots.
func (l *DecodeLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// LimiterStatus is a point-in-time view of the limiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status reports current slot usage.
func (l *DecodeLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: cap(l.slots),
	}
}
