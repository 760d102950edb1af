package leads

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/leadchat-api/internal/clock"
)

// DefaultSessionTTL is how long an idle conversation keeps its lead.
const DefaultSessionTTL = 30 * time.Minute

// Session is one chat conversation and the lead built from it.
type Session struct {
	ID        string
	CreatedAt time.Time

	qualifier *Qualifier

	mu        sync.Mutex
	lastSeen  time.Time
	escalated bool
}

// Qualifier returns the session's lead qualifier.
func (s *Session) Qualifier() *Qualifier {
	return s.qualifier
}

// MarkEscalated flags the session as handed to a human. It returns true
// only the first time.
func (s *Session) MarkEscalated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.escalated {
		return false
	}
	s.escalated = true
	return true
}

// Escalated reports whether the session was escalated.
func (s *Session) Escalated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.escalated
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

// Sessions is an in-memory session store with idle expiry.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	clock    clock.Clock
}

// NewSessions creates a store. A ttl of zero or less uses DefaultSessionTTL.
func NewSessions(ttl time.Duration, c clock.Clock) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if c == nil {
		c = clock.Real{}
	}
	return &Sessions{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		clock:    c,
	}
}

// Get returns a live session and refreshes its idle timer.
func (s *Sessions) Get(id string) (*Session, bool) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess, now) {
		return nil, false
	}
	sess.touch(now)
	return sess, true
}

// Peek returns the live session for id without refreshing its idle timer.
// Operator lookups use it so inspecting a lead does not keep it alive.
func (s *Sessions) Peek(id string) (*Session, bool) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess, now) {
		return nil, false
	}
	return sess, true
}

// GetOrCreate returns the live session for id, or starts a new session
// with a freshly generated ID. Callers cannot pick session IDs.
func (s *Sessions) GetOrCreate(id string) (sess *Session, created bool) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if existing, ok := s.sessions[id]; ok && !s.expired(existing, now) {
			existing.touch(now)
			return existing, false
		}
	}

	sess = &Session{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		CreatedAt: now,
		qualifier: NewQualifier(),
		lastSeen:  now,
	}
	s.sessions[sess.ID] = sess
	return sess, true
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Sessions) Sweep() int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, including expired ones not
// yet swept.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Sessions) expired(sess *Session, now time.Time) bool {
	return !now.Before(sess.idleSince().Add(s.ttl))
}

// RunSweeper sweeps expired sessions every interval until ctx is done.
// after, if set, is called with the number removed and the number left.
func (s *Sessions) RunSweeper(ctx context.Context, interval time.Duration, after func(removed, remaining int)) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed := s.Sweep()
			if after != nil {
				after(removed, s.Len())
			}
		}
	}
}
