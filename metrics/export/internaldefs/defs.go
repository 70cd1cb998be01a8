// Package internaldefs maps gymclient metric IDs to stable exported metric
// names shared by the Prometheus and OTel exporters.
package internaldefs

import (
	gymclient "github.com/MrEthical07/gymclient"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   gymclient.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   gymclient.MetricID
	Name string
	Help string
}

// CounterDefs is the canonical export order of all counters.
var CounterDefs = []CounterDef{
	{ID: gymclient.MetricLoginSuccess, Name: "gymclient_login_success_total", Help: "Committed logins."},
	{ID: gymclient.MetricLoginFailure, Name: "gymclient_login_failure_total", Help: "Rejected or unreachable logins."},
	{ID: gymclient.MetricExchangeSuppressed, Name: "gymclient_exchange_suppressed_total", Help: "Credential exchanges rejected by the in-flight guard."},
	{ID: gymclient.MetricRegisterSuccess, Name: "gymclient_register_success_total", Help: "Committed registrations."},
	{ID: gymclient.MetricRegisterFailure, Name: "gymclient_register_failure_total", Help: "Rejected registrations."},
	{ID: gymclient.MetricLogout, Name: "gymclient_logout_total", Help: "Explicit logouts."},
	{ID: gymclient.MetricSessionRehydrated, Name: "gymclient_session_rehydrated_total", Help: "Sessions restored from the durable mirror."},
	{ID: gymclient.MetricSessionInvalidated, Name: "gymclient_session_invalidated_total", Help: "Sessions cleared after a mid-session rejection."},
	{ID: gymclient.MetricRequestAuthenticated, Name: "gymclient_request_authenticated_total", Help: "Outbound requests carrying the bearer credential."},
	{ID: gymclient.MetricRequestAnonymous, Name: "gymclient_request_anonymous_total", Help: "Outbound requests sent without a credential."},
	{ID: gymclient.MetricRedirectTriggered, Name: "gymclient_redirect_triggered_total", Help: "Forced navigations to the login route."},
	{ID: gymclient.MetricRedirectSuppressed, Name: "gymclient_redirect_suppressed_total", Help: "Rejections that found the redirect already taken."},
	{ID: gymclient.MetricStatePersistFailure, Name: "gymclient_state_persist_failure_total", Help: "Durable mirror writes that failed."},
}

// HistogramDefs is the canonical export order of all histograms.
var HistogramDefs = []HistogramDef{
	{ID: gymclient.MetricRequestLatency, Name: "gymclient_request_latency_seconds", Help: "Authenticated request round-trip latency histogram."},
}

// HistogramBounds are the upper bounds of the 8 fixed buckets, as
// Prometheus le label values.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are the bucket bounds as OTel instrument name
// suffixes.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form both
// exporters emit.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
