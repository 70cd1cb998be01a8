package gymclient

import (
	"encoding/json"
	"fmt"
)

// Role is the capability scope attached to an [Identity]. Exactly one role
// is issued per identity; a changed role requires a new login.
type Role string

const (
	// RoleAdmin may enter every administrative view.
	RoleAdmin Role = "admin"
	// RoleTrainer may enter trainer-scoped views.
	RoleTrainer Role = "trainer"
	// RoleMember may enter member-scoped views.
	RoleMember Role = "member"
)

// ParseRole validates a wire-format role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleTrainer, RoleMember:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrRoleInvalid, s)
}

// Valid reports whether r is one of the three issued roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Identity is the authenticated user as issued by the server. It is
// immutable once issued; the JSON tags are the wire format of the
// /api/auth responses and of the persisted mirror.
type Identity struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// SessionStatus is the lifecycle state of the process-wide [Session].
type SessionStatus uint8

const (
	// StatusInitializing is the start state, before rehydration has run.
	// The route guard never allows access in this state.
	StatusInitializing SessionStatus = iota
	// StatusUnauthenticated means no identity is established.
	StatusUnauthenticated
	// StatusAuthenticating means a credential exchange is in flight.
	StatusAuthenticating
	// StatusAuthenticated means identity and token are both present.
	StatusAuthenticated
)

// String returns the lifecycle state name used in logs and audit events.
func (s SessionStatus) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	}
	return fmt.Sprintf("sessionstatus(%d)", uint8(s))
}

// Session is a point-in-time snapshot of the store. Status is
// StatusAuthenticated iff Identity and Token are both present; the store
// sets and clears them together, so no snapshot ever carries one without
// the other.
type Session struct {
	Identity *Identity
	Token    string
	Status   SessionStatus
}

// Authenticated reports whether the snapshot carries an established
// identity.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

// NavigationItem is one entry of the role-scoped menu derived by
// [NavigationItemsFor]. Derived, never persisted.
type NavigationItem struct {
	Path  string
	Label string
	Icon  string
	Role  Role
}

// tokenResponse is the success body of /api/auth/login and
// /api/auth/register.
type tokenResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        Identity `json:"user"`
}

// apiDetail is the FastAPI-style error body {"detail": "..."}.
type apiDetail struct {
	Detail json.RawMessage `json:"detail"`
}

// APIError is returned by the request helpers for non-2xx responses that
// are not authentication rejections.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Detail)
}
