package afdian

import "afdaudit/internal/domain"

// Registry resolves author account ids to live sessions. It is built once at
// startup and read concurrently afterwards.
type Registry struct {
	sessions map[string]domain.Session
}

// NewRegistry indexes sessions by their account id. Later entries win.
func NewRegistry(sessions ...domain.Session) *Registry {
	r := &Registry{sessions: make(map[string]domain.Session, len(sessions))}
	for _, s := range sessions {
		if s == nil {
			continue
		}
		r.sessions[s.AccountID()] = s
	}
	return r
}

// Session returns the session for accountID.
func (r *Registry) Session(accountID string) (domain.Session, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.sessions[accountID]
	return s, ok
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.sessions)
}

var _ domain.SessionRegistry = (*Registry)(nil)
