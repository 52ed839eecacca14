package internaldefs

import (
	"github.com/MrEthical07/jwtgate"
)

// Label is one name/value pair on a series.
type Label struct {
	Name  string
	Value string
}

// Series binds one gate counter to the labels it is exported under.
type Series struct {
	ID     jwtgate.MetricID
	Labels []Label
}

// Family is a labelled counter family.
type Family struct {
	Name   string
	Help   string
	Series []Series
}

// HistogramDef names one latency histogram for exporters.
type HistogramDef struct {
	ID   jwtgate.MetricID
	Name string
	Help string
}

func outcome(id jwtgate.MetricID, v string) Series {
	return Series{ID: id, Labels: []Label{{"outcome", v}}}
}

func rejection(id jwtgate.MetricID, class, reason string) Series {
	return Series{ID: id, Labels: []Label{{"class", class}, {"reason", reason}}}
}

func failure(id jwtgate.MetricID, kind string) Series {
	return Series{ID: id, Labels: []Label{{"kind", kind}}}
}

// Families lists every counter family in render order. Each gate counter
// appears in exactly one series.
var Families = []Family{
	{
		Name: "jwtgate_admissions_total",
		Help: "Requests allowed to continue, by outcome.",
		Series: []Series{
			outcome(jwtgate.MetricAdmitted, "authenticated"),
			outcome(jwtgate.MetricWhitelisted, "whitelisted"),
			outcome(jwtgate.MetricAnonymous, "anonymous"),
		},
	},
	{
		Name: "jwtgate_rejections_total",
		Help: "Requests refused, by response class and reason.",
		Series: []Series{
			rejection(jwtgate.MetricMissingToken, "unauthorized", "missing_token"),
			rejection(jwtgate.MetricMalformedHeader, "forbidden", "malformed_header"),
			rejection(jwtgate.MetricInvalidScheme, "forbidden", "invalid_scheme"),
			rejection(jwtgate.MetricDecodeFailure, "forbidden", "invalid_token"),
			rejection(jwtgate.MetricRevoked, "forbidden", "revoked"),
		},
	},
	{
		Name: "jwtgate_admission_failures_total",
		Help: "Admissions that ended without a decision.",
		Series: []Series{
			failure(jwtgate.MetricHookFailure, "hook_error"),
			failure(jwtgate.MetricCancelled, "cancelled"),
		},
	},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: jwtgate.MetricAdmitLatency, Name: "jwtgate_admit_duration_seconds", Help: "Time spent in Gate.Admit."},
}

// AuditDroppedName is the counter name for dropped audit events.
const AuditDroppedName = "jwtgate_audit_dropped_total"

// HistogramBounds are the upper bounds of the latency buckets as rendered
// in the le label. They match the gate's fixed bucket layout.
var HistogramBounds = [8]string{"0.0001", "0.00025", "0.0005", "0.001", "0.005", "0.025", "0.1", "+Inf"}

// Buckets returns the cumulative bucket counts for raw per-bucket counts.
// Missing buckets count as zero.
func Buckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
