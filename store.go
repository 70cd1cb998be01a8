package gymclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/MrEthical07/gymclient/state"
)

// Store is the process-wide holder of the current [Session] and of its
// durable mirror. It is the single authority consulted for access
// decisions: the guard, the navigation projector, and the request
// authenticator all read it and never cache role or token on the side.
//
// Commit and Clear mutate memory and mirror under one lock, so no reader
// ever observes an identity without a token or a token without an
// identity. Subscribers are notified synchronously on the mutating
// goroutine, after the state change and before the mutating call returns.
type Store struct {
	mu      sync.Mutex
	session Session
	subs    []subscription
	nextSub int

	mirror  state.Store
	logger  *log.Logger
	metrics *Metrics
	audit   *auditDispatcher

	initOnce sync.Once
}

type subscription struct {
	id int
	fn func(Session)
}

func newStore(mirror state.Store, logger *log.Logger, metrics *Metrics, audit *auditDispatcher) *Store {
	return &Store{
		session: Session{Status: StatusInitializing},
		mirror:  mirror,
		logger:  logger,
		metrics: metrics,
		audit:   audit,
	}
}

// Initialize rehydrates the session from the durable mirror. It runs its
// body exactly once per Store; later calls return immediately. A complete,
// well-formed persisted pair yields StatusAuthenticated without any
// network call; anything else (absent, half-present, undecodable) yields
// StatusUnauthenticated and scrubs the mirror.
func (s *Store) Initialize(ctx context.Context) error {
	var initErr error
	s.initOnce.Do(func() {
		initErr = s.initialize(ctx)
	})
	return initErr
}

func (s *Store) initialize(ctx context.Context) error {
	snap, present, err := s.mirror.Load(ctx)

	var identity *Identity
	if err == nil && present {
		identity = decodeIdentity(snap.User)
		if identity == nil {
			err = state.ErrCorrupt
		}
	}

	if err != nil || !present || identity == nil {
		if err != nil {
			s.logger.Printf("gymclient: persisted session unusable, starting unauthenticated: %v", err)
			// Scrub so the next start does not trip over the same record.
			if clearErr := s.mirror.Clear(ctx); clearErr != nil {
				s.logger.Printf("gymclient: failed to scrub persisted session: %v", clearErr)
			}
		}
		s.transition(Session{Status: StatusUnauthenticated})
		return nil
	}

	s.transition(Session{Identity: identity, Token: snap.Token, Status: StatusAuthenticated})
	s.metrics.Inc(MetricSessionRehydrated)
	s.audit.Emit(ctx, AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: AuditSessionRehydrated,
		Email:     identity.Email,
		Role:      identity.Role,
		Success:   true,
	})
	return nil
}

// Commit atomically sets the in-memory session and its persisted mirror
// and transitions to StatusAuthenticated. A mirror write failure is
// non-fatal to the in-memory session but is logged, counted, and audited:
// the session will not survive a restart.
func (s *Store) Commit(ctx context.Context, identity Identity, token string) error {
	if token == "" {
		return fmt.Errorf("commit: empty token")
	}
	if !identity.Role.Valid() {
		return fmt.Errorf("commit: %w: %q", ErrRoleInvalid, identity.Role)
	}
	if s.Current().Status == StatusInitializing {
		return ErrStoreNotInitialized
	}

	id := identity
	userJSON, err := json.Marshal(&id)
	if err != nil {
		return fmt.Errorf("commit: encode identity: %w", err)
	}

	s.mu.Lock()
	s.session = Session{Identity: &id, Token: token, Status: StatusAuthenticated}
	persistErr := s.mirror.Save(ctx, state.Snapshot{Token: token, User: userJSON})
	snapshot, subs := s.snapshotLocked()
	s.mu.Unlock()

	if persistErr != nil {
		s.logger.Printf("gymclient: session committed but mirror write failed, session will not survive a restart: %v", persistErr)
		s.metrics.Inc(MetricStatePersistFailure)
		s.audit.Emit(ctx, AuditEvent{
			Timestamp: time.Now().UTC(),
			EventType: AuditStatePersistFailure,
			Email:     id.Email,
			Role:      id.Role,
			Error:     persistErr.Error(),
		})
	}

	notify(subs, snapshot)
	return nil
}

// Clear atomically removes identity and token from memory and from the
// mirror and transitions to StatusUnauthenticated. Clearing an already
// empty session is a no-op; Clear never fails (mirror errors are logged).
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	already := s.session.Status == StatusUnauthenticated
	s.session = Session{Status: StatusUnauthenticated}
	var persistErr error
	if !already {
		persistErr = s.mirror.Clear(ctx)
	}
	snapshot, subs := s.snapshotLocked()
	s.mu.Unlock()

	if persistErr != nil {
		s.logger.Printf("gymclient: failed to clear persisted session: %v", persistErr)
		s.metrics.Inc(MetricStatePersistFailure)
	}
	if already {
		return
	}

	notify(subs, snapshot)
}

// Current returns a snapshot of the session. The identity is copied;
// callers cannot mutate store state through it.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySession(s.session)
}

// Subscribe registers fn to run synchronously on every lifecycle
// transition, in subscription order, outside the store lock. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// beginExchange marks a credential exchange in flight. The status moves to
// StatusAuthenticating only from StatusUnauthenticated; a re-login over an
// existing authenticated session keeps its status until the commit lands.
func (s *Store) beginExchange() {
	s.mu.Lock()
	if s.session.Status != StatusUnauthenticated {
		s.mu.Unlock()
		return
	}
	s.session.Status = StatusAuthenticating
	snapshot, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, snapshot)
}

// endExchange reverts a failed exchange. The session ends up exactly as it
// was before beginExchange; a successful exchange never calls this (Commit
// already moved the status).
func (s *Store) endExchange() {
	s.mu.Lock()
	if s.session.Status != StatusAuthenticating {
		s.mu.Unlock()
		return
	}
	s.session.Status = StatusUnauthenticated
	snapshot, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, snapshot)
}

// transition is used by initialize, where no mirror write happens.
func (s *Store) transition(next Session) {
	s.mu.Lock()
	s.session = next
	snapshot, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, snapshot)
}

func (s *Store) snapshotLocked() (Session, []subscription) {
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	return copySession(s.session), subs
}

func notify(subs []subscription, snapshot Session) {
	for _, sub := range subs {
		sub.fn(snapshot)
	}
}

func copySession(s Session) Session {
	out := s
	if s.Identity != nil {
		id := *s.Identity
		out.Identity = &id
	}
	return out
}

func decodeIdentity(data []byte) *Identity {
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil
	}
	if id.Email == "" || !id.Role.Valid() {
		return nil
	}
	return &id
}
