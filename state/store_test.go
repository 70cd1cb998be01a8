package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Token: "tok-123",
		User:  []byte(`{"id":1,"email":"a@b.com","full_name":"A B","role":"member"}`),
	}
}

// runStoreConformance exercises the Store contract every backend must hold:
// empty load, round trip, overwrite, idempotent clear.
func runStoreConformance(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("empty Load = ok %v, err %v; want absent, nil", ok, err)
	}

	snap := testSnapshot()
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load after Save = ok %v, err %v", ok, err)
	}
	if got.Token != snap.Token || string(got.User) != string(snap.User) {
		t.Fatalf("Load = %+v, want %+v", got, snap)
	}

	snap2 := Snapshot{Token: "tok-456", User: []byte(`{"id":2,"email":"c@d.com","full_name":"C D","role":"admin"}`)}
	if err := store.Save(ctx, snap2); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	got, ok, err = store.Load(ctx)
	if err != nil || !ok || got.Token != "tok-456" {
		t.Fatalf("Load after overwrite = %+v, ok %v, err %v", got, ok, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("Load after Clear = ok %v, err %v; want absent, nil", ok, err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
}

func TestMemoryConformance(t *testing.T) {
	runStoreConformance(t, NewMemory())
}

func TestFileConformance(t *testing.T) {
	runStoreConformance(t, NewFile(filepath.Join(t.TempDir(), "session.json")))
}

func TestSQLiteConformance(t *testing.T) {
	store, err := NewSQLite(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer store.Close()
	runStoreConformance(t, store)
}

func TestFileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	if err := NewFile(path).Save(ctx, testSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := NewFile(path).Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load from fresh handle = ok %v, err %v", ok, err)
	}
	if got.Token != "tok-123" {
		t.Fatalf("Token = %q, want tok-123", got.Token)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("file mode = %o, want 600", perm)
	}
}

func TestFileCorruptRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, _, err := NewFile(path).Load(ctx); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Load of garbage = %v, want ErrCorrupt", err)
	}

	// A record missing one of the two entries is corrupt, not half-usable.
	if err := os.WriteFile(path, []byte(`{"token":"t"}`), 0o600); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, _, err := NewFile(path).Load(ctx); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Load of half record = %v, want ErrCorrupt", err)
	}
}

func TestSnapshotComplete(t *testing.T) {
	if (Snapshot{}).Complete() {
		t.Fatal("empty snapshot reported complete")
	}
	if (Snapshot{Token: "t"}).Complete() {
		t.Fatal("token-only snapshot reported complete")
	}
	if (Snapshot{User: []byte("{}")}).Complete() {
		t.Fatal("user-only snapshot reported complete")
	}
	if !testSnapshot().Complete() {
		t.Fatal("full snapshot reported incomplete")
	}
}
