package gymclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/MrEthical07/gymclient/state"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestStore(t *testing.T, mirror state.Store) *Store {
	t.Helper()
	if mirror == nil {
		mirror = state.NewMemory()
	}
	return newStore(mirror, testLogger(), NewMetrics(MetricsConfig{Enabled: true}), nil)
}

func memberIdentity() Identity {
	return Identity{ID: 1, Email: "a@b.com", FullName: "A B", Role: RoleMember}
}

func seedMirror(t *testing.T, mirror state.Store, identity Identity, token string) {
	t.Helper()
	userJSON, err := json.Marshal(identity)
	if err != nil {
		t.Fatalf("marshal identity: %v", err)
	}
	if err := mirror.Save(context.Background(), state.Snapshot{Token: token, User: userJSON}); err != nil {
		t.Fatalf("seed mirror: %v", err)
	}
}

// failingMirror fails every write but loads cleanly.
type failingMirror struct {
	state.Store
}

func (f failingMirror) Save(context.Context, state.Snapshot) error {
	return errors.New("disk full")
}

func TestInitializeFreshStartsUnauthenticated(t *testing.T) {
	store := newTestStore(t, nil)

	if got := store.Current().Status; got != StatusInitializing {
		t.Fatalf("status before Initialize = %v, want initializing", got)
	}
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	current := store.Current()
	if current.Status != StatusUnauthenticated {
		t.Fatalf("status = %v, want unauthenticated", current.Status)
	}
	if current.Identity != nil || current.Token != "" {
		t.Fatalf("fresh session carries identity or token: %+v", current)
	}
}

func TestInitializeRehydrates(t *testing.T) {
	mirror := state.NewMemory()
	seedMirror(t, mirror, memberIdentity(), "abc")

	store := newTestStore(t, mirror)
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	current := store.Current()
	if current.Status != StatusAuthenticated {
		t.Fatalf("status = %v, want authenticated", current.Status)
	}
	if current.Token != "abc" {
		t.Fatalf("token = %q, want abc", current.Token)
	}
	if current.Identity == nil || current.Identity.Email != "a@b.com" || current.Identity.Role != RoleMember {
		t.Fatalf("identity = %+v", current.Identity)
	}
}

func TestInitializeRunsOnce(t *testing.T) {
	mirror := state.NewMemory()
	store := newTestStore(t, mirror)

	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	// A pair persisted after the first Initialize must not be picked up by
	// a second call.
	seedMirror(t, mirror, memberIdentity(), "late")
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}
	if got := store.Current().Status; got != StatusUnauthenticated {
		t.Fatalf("status after second Initialize = %v, want unauthenticated", got)
	}
}

func TestInitializeScrubsCorruptMirror(t *testing.T) {
	mirror := state.NewMemory()
	if err := mirror.Save(context.Background(), state.Snapshot{Token: "t", User: []byte("not json")}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	store := newTestStore(t, mirror)
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if got := store.Current().Status; got != StatusUnauthenticated {
		t.Fatalf("status = %v, want unauthenticated", got)
	}
	if _, present, err := mirror.Load(context.Background()); err != nil || present {
		t.Fatalf("mirror after scrub: present %v, err %v; want absent", present, err)
	}
}

func TestCommitBeforeInitialize(t *testing.T) {
	store := newTestStore(t, nil)
	err := store.Commit(context.Background(), memberIdentity(), "tok")
	if !errors.Is(err, ErrStoreNotInitialized) {
		t.Fatalf("Commit before Initialize = %v, want ErrStoreNotInitialized", err)
	}
}

func TestCommitAndClearKeepPairTogether(t *testing.T) {
	store := newTestStore(t, nil)
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	// Every observable snapshot must carry identity and token together.
	checkPair := func(s Session) {
		hasIdentity := s.Identity != nil
		hasToken := s.Token != ""
		if hasIdentity != hasToken {
			t.Errorf("snapshot carries identity=%v token=%v", hasIdentity, hasToken)
		}
		if (s.Status == StatusAuthenticated) != (hasIdentity && hasToken) {
			t.Errorf("status %v inconsistent with identity=%v token=%v", s.Status, hasIdentity, hasToken)
		}
	}
	unsubscribe := store.Subscribe(checkPair)
	defer unsubscribe()

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				checkPair(store.Current())
			}
		}
	}()

	ctx := context.Background()
	for i := 0; i < 200; i++ {
		if err := store.Commit(ctx, memberIdentity(), "tok"); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		store.Clear(ctx)
	}
	close(done)
	wg.Wait()
}

func TestClearIdempotent(t *testing.T) {
	mirror := state.NewMemory()
	store := newTestStore(t, mirror)
	ctx := context.Background()
	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := store.Commit(ctx, memberIdentity(), "tok"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	var notifications int
	defer store.Subscribe(func(Session) { notifications++ })()

	store.Clear(ctx)
	store.Clear(ctx)

	if got := store.Current().Status; got != StatusUnauthenticated {
		t.Fatalf("status = %v, want unauthenticated", got)
	}
	if notifications != 1 {
		t.Fatalf("notifications = %d, want 1 (second Clear is a no-op)", notifications)
	}
}

func TestCommitRejectsBadInput(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()
	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if err := store.Commit(ctx, memberIdentity(), ""); err == nil {
		t.Fatal("Commit with empty token succeeded")
	}
	bad := memberIdentity()
	bad.Role = "owner"
	if err := store.Commit(ctx, bad, "tok"); !errors.Is(err, ErrRoleInvalid) {
		t.Fatalf("Commit with bad role = %v, want ErrRoleInvalid", err)
	}
	if got := store.Current().Status; got != StatusUnauthenticated {
		t.Fatalf("failed commits mutated the session: %v", got)
	}
}

func TestSubscribersRunSynchronouslyInOrder(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()
	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	var order []string
	defer store.Subscribe(func(s Session) { order = append(order, "first:"+s.Status.String()) })()
	defer store.Subscribe(func(s Session) { order = append(order, "second:"+s.Status.String()) })()

	if err := store.Commit(ctx, memberIdentity(), "tok"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// By the time Commit returned, both subscribers have observed the
	// transition, in subscription order.
	want := []string{"first:authenticated", "second:authenticated"}
	if len(order) != len(want) || order[0] != want[0] || order[1] != want[1] {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()
	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	var calls int
	unsubscribe := store.Subscribe(func(Session) { calls++ })
	if err := store.Commit(ctx, memberIdentity(), "tok"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	unsubscribe()
	store.Clear(ctx)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestCommitSurvivesMirrorFailure(t *testing.T) {
	var logBuf bytes.Buffer
	metrics := NewMetrics(MetricsConfig{Enabled: true})
	store := newStore(failingMirror{state.NewMemory()}, log.New(&logBuf, "", 0), metrics, nil)
	ctx := context.Background()
	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if err := store.Commit(ctx, memberIdentity(), "tok"); err != nil {
		t.Fatalf("Commit with failing mirror = %v, want nil (non-fatal)", err)
	}
	if got := store.Current().Status; got != StatusAuthenticated {
		t.Fatalf("status = %v, want authenticated despite mirror failure", got)
	}
	if !strings.Contains(logBuf.String(), "will not survive a restart") {
		t.Fatalf("expected persist warning in log, got: %q", logBuf.String())
	}
	if got := metrics.Value(MetricStatePersistFailure); got != 1 {
		t.Fatalf("MetricStatePersistFailure = %d, want 1", got)
	}
}

func TestCurrentReturnsCopy(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()
	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := store.Commit(ctx, memberIdentity(), "tok"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	snap := store.Current()
	snap.Identity.Role = RoleAdmin

	if got := store.Current().Identity.Role; got != RoleMember {
		t.Fatalf("mutating a snapshot leaked into the store: role %v", got)
	}
}
