package gymclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
)

// Client is the boundary handed to every screen of the application: it
// owns the session store, the credential exchange, the authenticated
// request path, and the route guard. Construct it through [Builder.Build],
// call [Client.Initialize] once at boot, and share the one instance
// process-wide.
type Client struct {
	cfg       Config
	http      *http.Client
	store     *Store
	guard     *Guard
	transport *authTransport

	logger  *log.Logger
	metrics *Metrics
	audit   *auditDispatcher

	// exchangeBusy is the in-flight guard for Login/Register. A second
	// exchange started before the first resolves is rejected outright, so
	// a racing pair of logins can never silently overwrite each other's
	// committed session.
	exchangeBusy atomic.Bool

	unsubscribe func()
}

// Initialize rehydrates the session from the durable mirror. Call it once
// at process start, before evaluating any guard; until it returns the
// guard reports OutcomePending.
func (c *Client) Initialize(ctx context.Context) error {
	return c.store.Initialize(ctx)
}

// Session returns the current session snapshot.
func (c *Client) Session() Session {
	return c.store.Current()
}

// Store exposes the session store for subscription by top-level listeners.
func (c *Client) Store() *Store {
	return c.store
}

// Guard returns the route guard bound to this client's store.
func (c *Client) Guard() *Guard {
	return c.guard
}

// Navigation derives the menu for the current session. Empty when no
// identity is established.
func (c *Client) Navigation() []NavigationItem {
	current := c.store.Current()
	if !current.Authenticated() {
		return nil
	}
	return NavigationItemsFor(current.Identity.Role)
}

// HTTPClient returns the http.Client whose transport attaches the bearer
// credential. Screens issue all their API calls through it (or through the
// JSON helpers below); requests made with any other client carry no proof
// of session.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// MetricsSnapshot deep-copies the client's counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded under
// DropIfFull.
func (c *Client) AuditDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.audit.Dropped()
}

// Close stops the audit dispatcher after draining buffered events. The
// client must not be used afterwards.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.audit.Close()
}

/*
====================================
REQUEST HELPERS
====================================
*/

// Do issues req through the authenticated transport. The caller owns the
// response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.http.Do(req)
}

// GetJSON fetches path and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// PostJSON sends in as a JSON body and decodes the response into out.
// Either may be nil.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, in, out)
}

// PutJSON sends in as a JSON body and decodes the response into out.
func (c *Client) PutJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, in, out)
}

// Delete issues a DELETE for path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		body = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL(path), body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
