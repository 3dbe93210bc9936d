// Package ratelimit implements per-actor fixed-window admission control.
//
// This is deliberately a fixed-window limiter, not a sliding window or token
// bucket: a burst straddling a window boundary can admit up to 2M-1 requests
// in 2W. That matches the product's existing behavior and is kept as-is.
package ratelimit

import (
	"sync"
	"time"
)

// Window is one actor's admission window.
type Window struct {
	Count       int
	WindowStart time.Time
}

// Store abstracts the window state so single-process deployments can use an
// in-memory map and multi-process deployments can plug in a shared cache.
//
// CompareAndSwap must treat a zero-value old Window as matching a missing
// entry, so a first admission can be installed atomically.
type Store interface {
	Get(actorID string) (Window, bool)
	Set(actorID string, w Window)
	CompareAndSwap(actorID string, old, newW Window) bool
}

// MemoryStore is a process-local Store backed by a mutex-guarded map.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]Window
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]Window)}
}

// Get returns the window for an actor, if present.
func (s *MemoryStore) Get(actorID string) (Window, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[actorID]
	return w, ok
}

// Set unconditionally stores the window for an actor.
func (s *MemoryStore) Set(actorID string, w Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[actorID] = w
}

// CompareAndSwap installs new only if the stored window equals old. A zero
// old matches a missing entry.
func (s *MemoryStore) CompareAndSwap(actorID string, old, newW Window) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.windows[actorID]
	if !ok {
		if old != (Window{}) {
			return false
		}
	} else if cur != old {
		return false
	}
	s.windows[actorID] = newW
	return true
}

// Prune drops windows whose start is older than maxAge. Entries otherwise
// accumulate for the life of the process.
func (s *MemoryStore) Prune(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	var dropped int
	for id, w := range s.windows {
		if w.WindowStart.Before(cutoff) {
			delete(s.windows, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of tracked actors.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Limiter gates requests per actor within a fixed window.
type Limiter struct {
	store  Store
	window time.Duration
	max    int
	now    func() time.Time
}

// Option configures the limiter.
type Option func(*Limiter)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a Limiter admitting max requests per actor per window.
func New(store Store, window time.Duration, max int, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		window: window,
		max:    max,
		now:    time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Admit reports whether the actor may proceed. The first request in a
// window (or any request after the window lapses) resets the counter to 1
// and admits; within a live window requests are admitted until max is hit.
func (l *Limiter) Admit(actorID string) bool {
	for {
		w, ok := l.store.Get(actorID)
		now := l.now()

		if !ok || now.Sub(w.WindowStart) > l.window {
			if l.store.CompareAndSwap(actorID, w, Window{Count: 1, WindowStart: now}) {
				return true
			}
			continue
		}

		if w.Count >= l.max {
			return false
		}

		next := w
		next.Count++
		if l.store.CompareAndSwap(actorID, w, next) {
			return true
		}
	}
}
