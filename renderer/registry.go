package renderer

import (
	"errors"
	"sync"
)

// ErrTooManySessions is returned when admission is refused at capacity.
// Callers should surface it to the user instead of retrying; capacity is
// only released by sessions destroying themselves.
var ErrTooManySessions = errors.New("too many active shader sessions")

const (
	DefaultMaxSessions = 10
	minMaxSessions     = 1
	maxMaxSessions     = 50
)

// Registry tracks every live session and enforces the concurrency cap at
// admission time. It holds non-owning references only: it never destroys
// a session except through the session's own teardown path.
type Registry struct {
	mu       sync.Mutex
	max      int
	sessions map[*Session]struct{}
}

func NewRegistry(max int) *Registry {
	return &Registry{
		max:      clampMaxSessions(max),
		sessions: make(map[*Session]struct{}),
	}
}

func clampMaxSessions(max int) int {
	if max < minMaxSessions {
		return DefaultMaxSessions
	}
	if max > maxMaxSessions {
		return maxMaxSessions
	}
	return max
}

// TryAdmit registers s unless the registry is at capacity. A full
// registry refuses; it never evicts to make room.
func (r *Registry) TryAdmit(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) >= r.max {
		return false
	}
	r.sessions[s] = struct{}{}
	return true
}

// Remove forgets s. Called from the session's own destroy; removing an
// unknown session is a no-op.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, s)
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// SetMaxSessions changes the cap for future admissions. Already-admitted
// sessions are unaffected even if the new cap is lower.
func (r *Registry) SetMaxSessions(max int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.max = clampMaxSessions(max)
}

func (r *Registry) MaxSessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.max
}

// DestroyAll tears down every live session, for host shutdown. Each
// session runs its own destroy path and removes itself.
func (r *Registry) DestroyAll() {
	r.mu.Lock()
	live := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		live = append(live, s)
	}
	r.mu.Unlock()

	for _, s := range live {
		s.Destroy()
	}
}
