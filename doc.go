// Package gymclient is the session and authorization core for clients of the
// gym-management REST API: it establishes who the current user is, persists
// that identity across process restarts, decides whether a protected view may
// be entered, attaches the bearer credential to every outgoing request, and
// reacts to the server rejecting that credential.
//
// The package is designed for concurrent application workloads: Client and
// Store methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// gymclient is the public surface. It exposes [Client], [Builder], [Config],
// [Store], [Guard], and value types (Session, Identity, NavigationItem,
// MetricsSnapshot, AuditEvent). Durable session mirroring lives under state/,
// metric export under metrics/export/, and the API test double under
// fakeapi/.
//
// # What this package must NOT do
//
//   - Inspect or decode the bearer token. It is an opaque credential issued
//     by the server; the only operations on it are attach, persist, and clear.
//   - Cache a second copy of role or token outside the [Store]. Every access
//     decision reads the store's current value.
//   - Retry a failed credential exchange or a rejected request. All failures
//     are terminal for the attempt that triggered them.
//
// # Session lifecycle contract
//
// The store starts in StatusInitializing, moves to StatusAuthenticated or
// StatusUnauthenticated exactly once via [Store.Initialize], and afterwards
// transitions only through [Store.Commit] (exchange success) and
// [Store.Clear] (logout or server-side rejection). Identity and token are
// set and cleared together; no observer ever sees one without the other.
package gymclient
