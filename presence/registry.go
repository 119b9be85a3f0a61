// Package presence tracks which user identities currently hold at least
// one live session. It is the only place the session -> user mapping
// lives; callers never see the raw map.
package presence

import "sync"

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]string // sessionID -> userID
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]string)}
}

// Register inserts a presence record. Registering the same sessionID
// twice between a matching Register/Unregister pair is a no-op.
func (r *Registry) Register(sessionID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = userID
}

// Unregister removes the record. No-op if the session is unknown.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// DistinctOnlineUsers returns a deduplicated snapshot of the user ids
// with at least one registered session. Multi-device users count once.
func (r *Registry) DistinctOnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.sessions))
	users := make([]string, 0, len(r.sessions))
	for _, userID := range r.sessions {
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		users = append(users, userID)
	}
	return users
}
