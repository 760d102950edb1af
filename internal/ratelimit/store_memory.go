package ratelimit

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps windows in a process-local map. Limits are enforced
// per process; use RedisStore when several instances serve traffic.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*counter
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*counter)}
}

// Admit checks every window and increments them all if none is full.
func (s *MemoryStore) Admit(_ context.Context, now time.Time, checks []Check) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Outcome{Rejected: -1, Windows: make([]WindowState, len(checks))}

	for i, c := range checks {
		w := s.windows[c.Key]
		if w == nil || !now.Before(w.resetAt) {
			out.Windows[i] = WindowState{ResetAt: now.Add(c.Window)}
			continue
		}
		out.Windows[i] = WindowState{Count: w.count, ResetAt: w.resetAt}
		if w.count >= c.Limit {
			out.Rejected = i
			return out, nil
		}
	}

	for i, c := range checks {
		w := s.windows[c.Key]
		if w == nil || !now.Before(w.resetAt) {
			w = &counter{resetAt: now.Add(c.Window)}
			s.windows[c.Key] = w
		}
		w.count++
		out.Windows[i] = WindowState{Count: w.count, ResetAt: w.resetAt}
	}
	out.Allowed = true
	return out, nil
}

// Sweep removes every window that reset before now.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, w := range s.windows {
		if w.resetAt.Before(now) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked windows.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
