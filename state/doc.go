// Package state provides the durable mirror of the client session: the
// persisted (token, identity) pair that survives process restarts.
//
// # Design
//
// The mirror is a two-entry key-value record. [Store.Save] and [Store.Clear]
// write both entries together so that a reader never finds a token without
// an identity or an identity without a token, even after a crash mid-write.
//
// # Architecture boundaries
//
// This package owns persistence only. It does not know what the token means
// or how the identity is structured beyond "opaque string" and "opaque JSON
// blob"; interpretation belongs to the root package.
//
// # What this package must NOT do
//
//   - Perform network calls other than the configured Redis backend's own
//     round-trips.
//   - Validate or decode the token.
//   - Import gymclient or any sibling package.
package state
