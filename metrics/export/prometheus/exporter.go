package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/jwtgate"
	"github.com/MrEthical07/jwtgate/metrics/export/internaldefs"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

// MetricsSource is what the exporter reads. *jwtgate.Gate implements it.
type MetricsSource interface {
	MetricsSnapshot() jwtgate.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter renders gate metrics in the Prometheus text format.
type PrometheusExporter struct {
	source MetricsSource
}

// NewPrometheusExporter creates an exporter reading from gate.
func NewPrometheusExporter(gate *jwtgate.Gate) *PrometheusExporter {
	if gate == nil {
		return &PrometheusExporter{}
	}
	return &PrometheusExporter{source: gate}
}

// NewPrometheusExporterFromSource creates an exporter for any MetricsSource.
func NewPrometheusExporterFromSource(source MetricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render on every request.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics, or "" when the gate has metrics
// disabled and no audit events were dropped.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(2048)

	if len(snapshot.Counters) > 0 {
		for _, f := range internaldefs.Families {
			header(&b, f.Name, f.Help, "counter")
			for _, s := range f.Series {
				sample(&b, f.Name, s.Labels, snapshot.Counters[s.ID])
			}
		}
	}

	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		buckets := internaldefs.Buckets(raw)
		header(&b, def.Name, def.Help, "histogram")
		for i, le := range internaldefs.HistogramBounds {
			sample(&b, def.Name+"_bucket", []internaldefs.Label{{Name: "le", Value: le}}, buckets[i])
		}
		sample(&b, def.Name+"_count", nil, buckets[len(buckets)-1])
		// Buckets only; the gate does not track a running sum.
		sample(&b, def.Name+"_sum", nil, 0)
	}

	header(&b, internaldefs.AuditDroppedName, "Audit events dropped by the dispatcher.", "counter")
	sample(&b, internaldefs.AuditDroppedName, nil, dropped)

	return b.String()
}

func header(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP " + name + " " + escape(help, false) + "\n")
	b.WriteString("# TYPE " + name + " " + kind + "\n")
}

func sample(b *strings.Builder, name string, labels []internaldefs.Label, value uint64) {
	b.WriteString(name)
	if len(labels) > 0 {
		b.WriteByte('{')
		for i, l := range labels {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(l.Name + `="` + escape(l.Value, true) + `"`)
		}
		b.WriteByte('}')
	}
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func escape(s string, quoted bool) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	if quoted {
		s = strings.ReplaceAll(s, `"`, `\"`)
	}
	return s
}
