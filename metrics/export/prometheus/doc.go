// Package prometheus renders jwtgate admission metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] reads a [jwtgate.Gate] and exposes an
// [http.Handler]. Counters are named jwtgate_*_total; the latency histogram
// is jwtgate_admit_latency_seconds. Nothing is registered globally; callers
// mount the Handler themselves.
package prometheus
