package gymclient

import (
	"fmt"
	"net/url"
	"time"
)

// Config carries every tunable of the client core. Instances are configured
// during initialization and treated as immutable afterwards.
type Config struct {
	API     APIConfig
	Routes  RouteConfig
	State   StateConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the remote gym-management API.
type APIConfig struct {
	// BaseURL is the origin of the remote API, e.g. "http://localhost:3001".
	BaseURL string
	// LoginPath and RegisterPath are the credential exchange endpoints.
	// They are exempt from the 401 session-invalidation reaction.
	LoginPath    string
	RegisterPath string
	// Timeout applies to the default http.Client when none is injected.
	Timeout time.Duration
	// UserAgent is sent on every request when non-empty.
	UserAgent string
}

/*
====================================
ROUTE CONFIG
====================================
*/

// RouteConfig names the in-app routes the guard and the forced redirect
// target. These are client-side view routes, not API paths.
type RouteConfig struct {
	Login        string
	Unauthorized string
	Dashboard    string
}

/*
====================================
STATE CONFIG
====================================
*/

// StateConfig selects the default durable mirror. A custom state.Store
// injected through the builder takes precedence.
type StateConfig struct {
	// FilePath is where the file-backed mirror lives. Empty means the
	// session is process-local only (in-memory mirror).
	FilePath string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards events instead of blocking emitters when the
	// buffer is full. Drops are counted.
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration used when the builder is given
// nothing but a base URL.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			LoginPath:    "/api/auth/login",
			RegisterPath: "/api/auth/register",
			Timeout:      10 * time.Second,
		},
		Routes: RouteConfig{
			Login:        "/login",
			Unauthorized: "/unauthorized",
			Dashboard:    "/dashboard",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 64,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return ErrBaseURLRequired
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrBaseURLInvalid, c.API.BaseURL)
	}
	if c.API.LoginPath == "" || c.API.RegisterPath == "" {
		return fmt.Errorf("%w: auth endpoint paths must be set", ErrBaseURLInvalid)
	}
	if c.Routes.Login == "" || c.Routes.Unauthorized == "" {
		return ErrRouteRequired
	}
	return nil
}
