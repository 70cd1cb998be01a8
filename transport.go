package gymclient

import (
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Navigator is implemented by the embedding application. The authenticator
// invokes it exactly once per session invalidation to move the user to the
// login entry point; a single top-level listener owns redirect policy.
type Navigator interface {
	NavigateTo(path string)
}

// NavigatorFunc adapts a function to the [Navigator] interface.
type NavigatorFunc func(path string)

func (f NavigatorFunc) NavigateTo(path string) { f(path) }

// authTransport augments every outbound request with proof of session and
// reacts to the server rejecting that proof. It wraps the base transport of
// the injected http.Client.
type authTransport struct {
	base       http.RoundTripper
	store      *Store
	navigator  Navigator
	loginRoute string
	exempt     map[string]struct{}
	userAgent  string

	logger  *log.Logger
	metrics *Metrics
	audit   *auditDispatcher

	// redirected guards the forced navigation: armed on the first 401 of an
	// invalidation, re-armed by the next committed session. Without it a
	// burst of in-flight requests failing together would redirect once per
	// response.
	redirected atomic.Bool
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Per the RoundTripper contract the original request is not mutated.
	out := req.Clone(req.Context())
	if out.Header.Get("X-Request-ID") == "" {
		out.Header.Set("X-Request-ID", uuid.NewString())
	}
	if t.userAgent != "" && out.Header.Get("User-Agent") == "" {
		out.Header.Set("User-Agent", t.userAgent)
	}

	if current := t.store.Current(); current.Authenticated() {
		out.Header.Set("Authorization", "Bearer "+current.Token)
		t.metrics.Inc(MetricRequestAuthenticated)
	} else {
		t.metrics.Inc(MetricRequestAnonymous)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	t.metrics.Observe(MetricRequestLatency, time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		if _, ok := t.exempt[out.URL.Path]; !ok {
			t.invalidate(out)
		}
	}

	// The response is handed back untouched: the caller observes the 401
	// like any other status, with no retry.
	return resp, nil
}

// invalidate clears the session and triggers the login redirect. Clearing
// is idempotent; the redirect fires at most once per invalidation even
// when several rejected responses arrive together, and even when the
// forced navigation itself issues requests that are rejected in turn.
func (t *authTransport) invalidate(req *http.Request) {
	t.store.Clear(req.Context())

	if !t.redirected.CompareAndSwap(false, true) {
		t.metrics.Inc(MetricRedirectSuppressed)
		return
	}

	t.metrics.Inc(MetricSessionInvalidated)
	t.metrics.Inc(MetricRedirectTriggered)
	t.logger.Printf("gymclient: server rejected bearer credential on %s, session cleared", req.URL.Path)
	t.audit.Emit(req.Context(), AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: AuditSessionInvalidated,
		Path:      req.URL.Path,
		Error:     ErrSessionInvalidated.Error(),
	})

	if t.navigator != nil {
		t.navigator.NavigateTo(t.loginRoute)
	}
}

// rearm re-enables the redirect guard. Called on every transition to
// StatusAuthenticated.
func (t *authTransport) rearm() {
	t.redirected.Store(false)
}
