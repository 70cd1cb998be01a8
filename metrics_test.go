package gymclient

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginFailure)

	if got := m.Value(MetricLoginSuccess); got != 2 {
		t.Fatalf("login success = %d, want 2", got)
	}
	if got := m.Value(MetricLoginFailure); got != 1 {
		t.Fatalf("login failure = %d, want 1", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 16
	const perGoroutine = 1000

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				m.Inc(MetricRequestAuthenticated)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricRequestAuthenticated); got != goroutines*perGoroutine {
		t.Fatalf("expected %d, got %d", goroutines*perGoroutine, got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLoginSuccess)
	m.Observe(MetricRequestLatency, time.Millisecond)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("nil snapshot = %+v", snap)
	}
}

func TestMetricsUnknownIDIgnored(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(metricIDCount)
	if got := m.Value(metricIDCount); got != 0 {
		t.Fatalf("out-of-range id recorded: %d", got)
	}
}

func TestLatencyHistogramBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	durations := []time.Duration{
		2 * time.Millisecond,    // bucket 0
		8 * time.Millisecond,    // bucket 1
		20 * time.Millisecond,   // bucket 2
		40 * time.Millisecond,   // bucket 3
		80 * time.Millisecond,   // bucket 4
		200 * time.Millisecond,  // bucket 5
		400 * time.Millisecond,  // bucket 6
		1000 * time.Millisecond, // bucket 7
	}
	for _, d := range durations {
		m.Observe(MetricRequestLatency, d)
	}

	buckets := m.Snapshot().Histograms[MetricRequestLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("bucket count = %d, want %d", len(buckets), histBucketCount)
	}
	for i, count := range buckets {
		if count != 1 {
			t.Errorf("bucket %d = %d, want 1", i, count)
		}
	}
}

func TestLatencyDisabledByDefault(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricRequestLatency, time.Millisecond)

	if buckets := m.Snapshot().Histograms[MetricRequestLatency]; buckets != nil {
		t.Fatalf("histogram recorded without opt-in: %v", buckets)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Inc(MetricLogout)
	m.Observe(MetricRequestLatency, time.Millisecond)

	snap := m.Snapshot()
	snap.Counters[MetricLogout] = 99
	snap.Histograms[MetricRequestLatency][0] = 99

	if got := m.Value(MetricLogout); got != 1 {
		t.Fatalf("mutating snapshot leaked into counters: %d", got)
	}
	if got := m.Snapshot().Histograms[MetricRequestLatency][0]; got != 1 {
		t.Fatalf("mutating snapshot leaked into histogram: %d", got)
	}
}
