package state

import (
	"context"
	"errors"
)

// ErrCorrupt is returned by Load when the backing record exists but cannot
// be decoded. Callers treat a corrupt mirror as absent and clear it.
var ErrCorrupt = errors.New("persisted session state corrupt")

// Snapshot is the durable form of the session: the opaque bearer token and
// the JSON-serialized identity. Both fields are present or both are absent;
// a Snapshot with exactly one of them set is never written.
type Snapshot struct {
	Token string
	User  []byte
}

// Complete reports whether both entries are present.
func (s Snapshot) Complete() bool {
	return s.Token != "" && len(s.User) > 0
}

// Store is a durable mirror backend. Implementations must keep the two
// entries of a [Snapshot] together: Save writes both atomically with
// respect to Load, and Clear removes both.
type Store interface {
	// Load returns the persisted snapshot. The bool is false when nothing
	// is persisted; a half-present or undecodable record returns ErrCorrupt.
	Load(ctx context.Context) (Snapshot, bool, error)
	// Save persists the snapshot, replacing any previous one.
	Save(ctx context.Context, snap Snapshot) error
	// Clear removes the snapshot. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}
