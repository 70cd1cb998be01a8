package gymclient

import (
	"log"
	"net/http"

	"github.com/MrEthical07/gymclient/state"
)

// Builder assembles a [Client]. A builder is single-use: Build can be
// called once.
type Builder struct {
	config     Config
	httpClient *http.Client
	stateStore state.Store
	navigator  Navigator
	auditSink  AuditSink
	logger     *log.Logger

	built bool
}

// New creates a builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithBaseURL sets the origin of the remote API.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithHTTPClient injects the http.Client whose transport will be wrapped
// by the request authenticator. The injected client is not mutated. When
// omitted, a client with the configured timeout is created.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithStateStore injects the durable mirror backend, overriding
// Config.State. Use [state.NewRedis] or [state.NewSQLite] here; the
// default is a file mirror at Config.State.FilePath, or in-memory when no
// path is configured.
func (b *Builder) WithStateStore(s state.Store) *Builder {
	b.stateStore = s
	return b
}

// WithNavigator installs the listener that owns the forced redirect to the
// login route after a mid-session rejection. Without one the session is
// still cleared; the application is expected to watch the store instead.
func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

// WithAuditSink installs the audit event receiver.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger replaces the default logger.
func (b *Builder) WithLogger(l *log.Logger) *Builder {
	b.logger = l
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the request latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the client. No I/O happens
// here beyond constructing the state backend; rehydration is explicit via
// [Client.Initialize].
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	b.built = true

	if err := b.config.validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = log.Default()
	}

	metrics := NewMetrics(b.config.Metrics)
	audit := newAuditDispatcher(b.config.Audit, b.auditSink)

	mirror := b.stateStore
	if mirror == nil {
		if b.config.State.FilePath != "" {
			mirror = state.NewFile(b.config.State.FilePath)
		} else {
			mirror = state.NewMemory()
		}
	}

	store := newStore(mirror, logger, metrics, audit)

	base := http.DefaultTransport
	hc := http.Client{Timeout: b.config.API.Timeout}
	if b.httpClient != nil {
		hc = *b.httpClient
		if hc.Transport != nil {
			base = hc.Transport
		}
	}

	transport := &authTransport{
		base:       base,
		store:      store,
		navigator:  b.navigator,
		loginRoute: b.config.Routes.Login,
		exempt: map[string]struct{}{
			b.config.API.LoginPath:    {},
			b.config.API.RegisterPath: {},
		},
		userAgent: b.config.API.UserAgent,
		logger:    logger,
		metrics:   metrics,
		audit:     audit,
	}
	hc.Transport = transport

	client := &Client{
		cfg:       b.config,
		http:      &hc,
		store:     store,
		guard:     NewGuard(store, b.config.Routes),
		transport: transport,
		logger:    logger,
		metrics:   metrics,
		audit:     audit,
	}

	// A freshly committed session re-arms the one-shot redirect guard so
	// the next invalidation can redirect again.
	client.unsubscribe = store.Subscribe(func(s Session) {
		if s.Status == StatusAuthenticated {
			transport.rearm()
		}
	})

	return client, nil
}
