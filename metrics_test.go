package jwtgate

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricAdmitted)

	if got := m.Value(MetricAdmitted); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if len(m.Snapshot().Counters) != 0 {
		t.Fatal("expected empty snapshot when disabled")
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricRevoked)
	m.Inc(MetricRevoked)
	m.Inc(MetricRevoked)

	if got := m.Value(MetricRevoked); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricAdmitted)
	m.Observe(MetricAdmitLatency, time.Millisecond)
	if m.Value(MetricAdmitted) != 0 || m.Enabled() || m.LatencyEnabled() {
		t.Fatal("nil metrics must be inert")
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricDecodeFailure)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricDecodeFailure); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		50 * time.Microsecond,
		200 * time.Microsecond,
		400 * time.Microsecond,
		time.Millisecond,
		3 * time.Millisecond,
		20 * time.Millisecond,
		80 * time.Millisecond,
		time.Second,
	}

	for _, d := range observations {
		m.Observe(MetricAdmitLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricAdmitLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}

	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsObserveIgnoresCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricAdmitted, time.Millisecond)
	if _, ok := m.Snapshot().Histograms[MetricAdmitted]; ok {
		t.Fatal("only the latency metric carries a histogram")
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: false,
	})
	m.Inc(MetricAdmitted)
	m.Inc(MetricMissingToken)
	m.Inc(MetricMissingToken)
	m.Observe(MetricAdmitLatency, 2*time.Millisecond)

	snap := m.Snapshot()

	if snap.Counters[MetricAdmitted] != 1 {
		t.Fatalf("expected MetricAdmitted=1 got %d", snap.Counters[MetricAdmitted])
	}
	if snap.Counters[MetricMissingToken] != 2 {
		t.Fatalf("expected MetricMissingToken=2 got %d", snap.Counters[MetricMissingToken])
	}
	if _, ok := snap.Counters[MetricAdmitLatency]; ok {
		t.Fatal("latency metric must not appear as a counter")
	}
	if len(snap.Histograms) != 0 {
		t.Fatal("expected no histograms when latency is disabled")
	}
}
