package gymclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// registerRequest is the JSON body of /api/auth/register.
type registerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// Login exchanges credentials for a session. On success the store is
// committed and the issued identity returned. On failure the session is
// left as it was: [ErrAuthenticationRejected] carries the server's detail
// message, [ErrNetworkUnavailable] wraps transport failures. A login issued
// while another exchange is in flight fails fast with
// [ErrExchangeInFlight]; nothing is queued and no attempt is retried.
func (c *Client) Login(ctx context.Context, email, password string) (*Identity, error) {
	if !c.exchangeBusy.CompareAndSwap(false, true) {
		return nil, c.exchangeSuppressed(ctx, email)
	}
	defer c.exchangeBusy.Store(false)

	c.store.beginExchange()

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL(c.cfg.API.LoginPath), strings.NewReader(form.Encode()))
	if err != nil {
		c.store.endExchange()
		return nil, fmt.Errorf("login: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	identity, err := c.finishExchange(ctx, req, ErrAuthenticationRejected)
	if err != nil {
		c.store.endExchange()
		c.metrics.Inc(MetricLoginFailure)
		c.audit.Emit(ctx, AuditEvent{
			Timestamp: time.Now().UTC(),
			EventType: AuditLoginFailure,
			Email:     email,
			Error:     err.Error(),
		})
		return nil, err
	}

	c.metrics.Inc(MetricLoginSuccess)
	c.audit.Emit(ctx, AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: AuditLoginSuccess,
		Email:     identity.Email,
		Role:      identity.Role,
		Success:   true,
	})
	return identity, nil
}

// Register creates a new account and, like the original service, signs the
// new account straight in. Role defaults to member when empty. Failures
// mirror Login's, with [ErrRegistrationRejected] for server refusals
// (typically a duplicate email).
func (c *Client) Register(ctx context.Context, email, fullName, password string, role Role) (*Identity, error) {
	if role == "" {
		role = RoleMember
	}
	if !role.Valid() {
		return nil, fmt.Errorf("register: %w: %q", ErrRoleInvalid, role)
	}
	if !c.exchangeBusy.CompareAndSwap(false, true) {
		return nil, c.exchangeSuppressed(ctx, email)
	}
	defer c.exchangeBusy.Store(false)

	c.store.beginExchange()

	body, err := json.Marshal(registerRequest{Email: email, FullName: fullName, Password: password, Role: role})
	if err != nil {
		c.store.endExchange()
		return nil, fmt.Errorf("register: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL(c.cfg.API.RegisterPath), strings.NewReader(string(body)))
	if err != nil {
		c.store.endExchange()
		return nil, fmt.Errorf("register: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	identity, err := c.finishExchange(ctx, req, ErrRegistrationRejected)
	if err != nil {
		c.store.endExchange()
		c.metrics.Inc(MetricRegisterFailure)
		c.audit.Emit(ctx, AuditEvent{
			Timestamp: time.Now().UTC(),
			EventType: AuditRegisterFailure,
			Email:     email,
			Error:     err.Error(),
		})
		return nil, err
	}

	c.metrics.Inc(MetricRegisterSuccess)
	c.audit.Emit(ctx, AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: AuditRegisterSuccess,
		Email:     identity.Email,
		Role:      identity.Role,
		Success:   true,
	})
	return identity, nil
}

// Logout clears the session. It is purely local: no remote call is made
// and it cannot fail. Logging out twice in a row is a no-op.
func (c *Client) Logout(ctx context.Context) {
	was := c.store.Current()
	c.store.Clear(ctx)
	if was.Status != StatusAuthenticated {
		return
	}
	c.metrics.Inc(MetricLogout)
	event := AuditEvent{Timestamp: time.Now().UTC(), EventType: AuditLogout, Success: true}
	if was.Identity != nil {
		event.Email = was.Identity.Email
		event.Role = was.Identity.Role
	}
	c.audit.Emit(ctx, event)
}

// finishExchange performs the prepared request and commits the issued pair.
// rejection is the sentinel wrapped around a server refusal.
func (c *Client) finishExchange(ctx context.Context, req *http.Request, rejection error) (*Identity, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readDetail(resp.Body)
		if detail == "" {
			return nil, fmt.Errorf("%w: status %d", rejection, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", rejection, detail)
	}

	var tr tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&tr); err != nil {
		return nil, fmt.Errorf("%w: malformed token response: %v", rejection, err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access_token", rejection)
	}
	if !tr.User.Role.Valid() {
		return nil, fmt.Errorf("%w: token response carries %v", rejection, ErrRoleInvalid)
	}

	if err := c.store.Commit(ctx, tr.User, tr.AccessToken); err != nil {
		return nil, fmt.Errorf("commit exchanged session: %w", err)
	}
	identity := tr.User
	return &identity, nil
}

func (c *Client) exchangeSuppressed(ctx context.Context, email string) error {
	c.metrics.Inc(MetricExchangeSuppressed)
	c.audit.Emit(ctx, AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: AuditLoginSuppressed,
		Email:     email,
		Error:     ErrExchangeInFlight.Error(),
	})
	return ErrExchangeInFlight
}

// readDetail extracts the FastAPI-style {"detail": ...} message, falling
// back to the raw JSON when detail is structured.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 1<<16))
	if err != nil {
		return ""
	}
	var d apiDetail
	if err := json.Unmarshal(data, &d); err != nil || len(d.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(d.Detail, &s); err == nil {
		return s
	}
	return string(d.Detail)
}

func (c *Client) apiURL(path string) string {
	return strings.TrimRight(c.cfg.API.BaseURL, "/") + path
}
