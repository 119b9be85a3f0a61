package realtime

import "sync"

// Router resolves a user identity to its set of live sessions. Routing is
// per-user rather than one global room: a private message must reach
// exactly the sender's and recipient's own sessions, nobody else's.
type Router struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*Session // userID -> sessionID -> session
}

func NewRouter() *Router {
	return &Router{sessions: make(map[string]map[string]*Session)}
}

func (r *Router) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.sessions[s.User.ID]
	if !ok {
		byID = make(map[string]*Session)
		r.sessions[s.User.ID] = byID
	}
	byID[s.ID] = s
}

// Remove drops the session from the index. Empty per-user sets are
// deleted so the map does not grow with every user that ever connected.
func (r *Router) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.sessions[s.User.ID]
	if !ok {
		return
	}
	delete(byID, s.ID)
	if len(byID) == 0 {
		delete(r.sessions, s.User.ID)
	}
}

// SessionsFor returns a snapshot of the user's live sessions. The
// snapshot is not atomic with any later delivery; sessions may vanish in
// between and are skipped at send time.
func (r *Router) SessionsFor(userID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byID, ok := r.sessions[userID]
	if !ok {
		return nil
	}
	sessions := make([]*Session, 0, len(byID))
	for _, s := range byID {
		sessions = append(sessions, s)
	}
	return sessions
}

// Deliver sends the frame to every live session of the user.
// Best-effort: closed or slow sessions are skipped, nothing is queued or
// retried.
func (r *Router) Deliver(userID string, frame OutboundFrame) {
	for _, s := range r.SessionsFor(userID) {
		s.Send(frame)
	}
}

// Broadcast sends the frame to every registered session of every user,
// used for presence updates.
func (r *Router) Broadcast(frame OutboundFrame) {
	r.mu.RLock()
	all := make([]*Session, 0, len(r.sessions))
	for _, byID := range r.sessions {
		for _, s := range byID {
			all = append(all, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range all {
		s.Send(frame)
	}
}
