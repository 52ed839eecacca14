package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/jwtgate"
	"github.com/MrEthical07/jwtgate/metrics/export/internaldefs"
)

type fakeSource struct {
	snapshot jwtgate.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() jwtgate.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                     { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: jwtgate.MetricsSnapshot{
			Counters:   map[jwtgate.MetricID]uint64{},
			Histograms: map[jwtgate.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderDeterministicIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: jwtgate.MetricsSnapshot{
			Counters: map[jwtgate.MetricID]uint64{
				jwtgate.MetricAdmitted: 7,
				jwtgate.MetricRevoked:  1,
			},
			Histograms: map[jwtgate.MetricID][]uint64{
				jwtgate.MetricAdmitLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"# TYPE jwtgate_admissions_total counter",
		`jwtgate_admissions_total{outcome="authenticated"} 7`,
		`jwtgate_rejections_total{class="forbidden",reason="revoked"} 1`,
		`jwtgate_rejections_total{class="unauthorized",reason="missing_token"} 0`,
		"# TYPE jwtgate_admit_duration_seconds histogram",
		`jwtgate_admit_duration_seconds_bucket{le="0.0001"} 1`,
		`jwtgate_admit_duration_seconds_bucket{le="+Inf"} 36`,
		"jwtgate_admit_duration_seconds_count 36",
		"jwtgate_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
	if exp.Render() != out {
		t.Fatal("expected deterministic output")
	}
}

func TestRenderFromGate(t *testing.T) {
	g, err := jwtgate.New("S").Build()
	if err != nil {
		t.Fatalf("build gate: %v", err)
	}
	defer g.Close()
	_, _ = g.Admit(httptest.NewRequest(http.MethodGet, "/", nil), nil)

	out := NewPrometheusExporter(g).Render()
	if !strings.Contains(out, `jwtgate_rejections_total{class="unauthorized",reason="missing_token"} 1`) {
		t.Fatalf("expected missing token counter from gate, got:\n%s", out)
	}
}

func TestRenderOnlyAuditDropped(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: jwtgate.MetricsSnapshot{},
		dropped:  3,
	})

	out := exp.Render()
	if strings.Contains(out, "jwtgate_admissions_total") || strings.Contains(out, "_bucket") {
		t.Fatalf("expected only the audit counter, got:\n%s", out)
	}
	if !strings.Contains(out, "jwtgate_audit_dropped_total 3") {
		t.Fatalf("expected audit counter, got:\n%s", out)
	}
}

func TestSampleEscapesLabelValues(t *testing.T) {
	var b strings.Builder
	sample(&b, "m", []internaldefs.Label{{Name: "v", Value: "a\"b\\c"}}, 1)
	if got, want := b.String(), `m{v="a\"b\\c"} 1`+"\n"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNilGateRendersNothing(t *testing.T) {
	if got := NewPrometheusExporter(nil).Render(); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: jwtgate.MetricsSnapshot{
			Counters:   map[jwtgate.MetricID]uint64{jwtgate.MetricAdmitted: 1},
			Histograms: map[jwtgate.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: jwtgate.MetricsSnapshot{
			Counters: map[jwtgate.MetricID]uint64{
				jwtgate.MetricAdmitted:      1000,
				jwtgate.MetricWhitelisted:   300,
				jwtgate.MetricMissingToken:  40,
				jwtgate.MetricDecodeFailure: 10,
				jwtgate.MetricRevoked:       2,
			},
			Histograms: map[jwtgate.MetricID][]uint64{
				jwtgate.MetricAdmitLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
