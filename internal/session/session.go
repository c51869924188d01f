// Package session carries the authenticated caller explicitly through each
// request instead of keeping token state in package globals.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Role scopes what a caller can see and do.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleMentor    Role = "mentor"
	RoleAdmin     Role = "admin"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleCandidate, RoleMentor, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Session is the caller of one request. It is created when the bearer token
// is validated and closed once the request is done.
type Session struct {
	UserID uuid.UUID
	Role   Role

	mu     sync.RWMutex
	token  string
	closed bool
}

// New starts a session for a validated token.
func New(userID uuid.UUID, role Role, token string) *Session {
	return &Session{UserID: userID, Role: role, token: token}
}

// Token returns the bearer token to forward to the backend, or "" once closed.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Active reports whether the session has not been closed.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

// Close drops the token. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.closed = true
}

// Is reports whether the session has one of the given roles.
func (s *Session) Is(roles ...Role) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

// CanAccessCandidate reports whether the caller may read or act on the
// given candidate. Candidates only see themselves; mentors and admins see
// everyone. The backend re-checks every mutation.
func (s *Session) CanAccessCandidate(candidateID string) bool {
	switch s.Role {
	case RoleMentor, RoleAdmin:
		return true
	case RoleCandidate:
		return candidateID == s.UserID.String()
	default:
		return false
	}
}
