package conversation

import "sync"

// Registry hands out one Session per user, created on first use.
type Registry struct {
	mu       sync.Mutex
	sessions map[int32]*Session
	factory  func(userID int32) *Session
}

func NewRegistry(factory func(userID int32) *Session) *Registry {
	return &Registry{sessions: make(map[int32]*Session), factory: factory}
}

// Get returns the user's session. Anonymous callers get a fresh no-op session.
func (r *Registry) Get(userID int32) *Session {
	if userID == 0 {
		return r.factory(0)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[userID]
	if !ok {
		session = r.factory(userID)
		r.sessions[userID] = session
	}
	return session
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
