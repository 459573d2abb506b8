package hub

import (
	"sync"

	"github.com/streamvista/chathub/internal/auth"
	"github.com/streamvista/chathub/internal/proto"
	"github.com/streamvista/chathub/internal/store"
)

// sessionBuffer is the outbound event buffer per connection. A client
// that falls further behind starts losing events rather than blocking
// the hub.
const sessionBuffer = 32

// Session is the ephemeral state of one live connection. It is born at
// connect and dies at disconnect; guests have a nil UserID.
type Session struct {
	ConnID string
	UserID *int64
	Role   store.Role
	Name   string

	Out chan proto.Outbound

	mu     sync.Mutex
	locale string
}

// NewSession builds a session from a resolved identity.
func NewSession(connID string, identity *auth.Identity) *Session {
	return &Session{
		ConnID: connID,
		UserID: identity.UserID,
		Role:   identity.Role,
		Name:   identity.Name,
		locale: identity.Locale,
		Out:    make(chan proto.Outbound, sessionBuffer),
	}
}

// IsAdmin reports whether the session has the admin role.
func (s *Session) IsAdmin() bool {
	return s.Role == store.RoleAdmin
}

// IsGuest reports whether the session is anonymous.
func (s *Session) IsGuest() bool {
	return s.UserID == nil
}

// Locale returns the session's current locale.
func (s *Session) Locale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locale
}

// SetLocale switches the session's locale.
func (s *Session) SetLocale(locale string) {
	s.mu.Lock()
	s.locale = locale
	s.mu.Unlock()
}

// Send queues an outbound event without blocking. Returns false if the
// event was dropped because the client is too slow.
func (s *Session) Send(out proto.Outbound) bool {
	select {
	case s.Out <- out:
		return true
	default:
		return false
	}
}

// MemberInfo is the wire representation of this session in room
// snapshots and creator announcements.
func (s *Session) MemberInfo() proto.MemberInfo {
	return proto.MemberInfo{
		UserID: s.UserID,
		Name:   s.Name,
		Role:   string(s.Role),
	}
}
