package gymclient

import "errors"

var (
	// ErrAuthenticationRejected is returned by Login when the server refuses
	// the supplied credentials. The session is left untouched.
	ErrAuthenticationRejected = errors.New("authentication rejected")
	// ErrRegistrationRejected is returned by Register when the server
	// refuses the new account, typically for a duplicate email.
	ErrRegistrationRejected = errors.New("registration rejected")
	// ErrNetworkUnavailable is returned when the authentication endpoint
	// could not be reached at all.
	ErrNetworkUnavailable = errors.New("network unavailable")
	// ErrExchangeInFlight is returned when Login or Register is called while
	// another credential exchange has not yet resolved. The second attempt
	// is rejected outright; there is no queuing and no last-write-wins.
	ErrExchangeInFlight = errors.New("credential exchange already in flight")
	// ErrSessionInvalidated marks the audit trail entry emitted when a
	// previously authenticated request is rejected by the server
	// mid-session. It is never returned to the caller of the rejected
	// request.
	ErrSessionInvalidated = errors.New("session invalidated by server")
	// ErrStoreNotInitialized is returned by Commit and Clear before
	// Initialize has run.
	ErrStoreNotInitialized = errors.New("session store not initialized")
	// ErrRoleInvalid is returned when a wire-format role is not one of
	// admin, trainer, member.
	ErrRoleInvalid = errors.New("invalid role")
	// ErrBaseURLRequired is returned by Build when no API base URL is
	// configured.
	ErrBaseURLRequired = errors.New("api base url required")
	// ErrBaseURLInvalid is returned by Build when the configured base URL
	// does not parse as an absolute http(s) URL.
	ErrBaseURLInvalid = errors.New("api base url invalid")
	// ErrRouteRequired is returned by Build when a redirect route is empty.
	ErrRouteRequired = errors.New("redirect route required")
	// ErrBuilderUsed is returned by Build on a second call to the same
	// builder.
	ErrBuilderUsed = errors.New("builder already used")
)
