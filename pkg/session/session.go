// Package session holds the identity of the operator using the job view.
// A session is passed explicitly to the components that need it; nothing
// reads it from a global.
package session

import (
	"sync"

	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
)

// Session is the authenticated actor, if any, together with the bearer
// token the dashboard issued for them. The zero value is an anonymous
// session and is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	user  *types.User
	token string
}

// New returns an anonymous session.
func New() *Session {
	return &Session{}
}

// Start makes user the current actor.
func (s *Session) Start(user *types.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user != nil {
		copied := *user
		copied.HashedPassword = ""
		user = &copied
	}
	s.user = user
	s.token = token
}

// End drops the current actor. Moderation is no longer permitted afterwards.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
}

// User returns the current actor or nil when nobody is logged in.
func (s *Session) User() *types.User {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) IsAuthenticated() bool {
	return s.User() != nil
}
