package state

import (
	"context"
	"sync"
)

// Memory is an in-process [Store]. It is the default backend in tests and
// for embedders that do not want the session to survive a restart.
type Memory struct {
	mu      sync.Mutex
	snap    Snapshot
	present bool
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(ctx context.Context) (Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.present {
		return Snapshot{}, false, nil
	}
	if !m.snap.Complete() {
		return Snapshot{}, false, ErrCorrupt
	}
	out := Snapshot{Token: m.snap.Token, User: append([]byte(nil), m.snap.User...)}
	return out, true, nil
}

func (m *Memory) Save(ctx context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = Snapshot{Token: snap.Token, User: append([]byte(nil), snap.User...)}
	m.present = true
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = Snapshot{}
	m.present = false
	return nil
}
