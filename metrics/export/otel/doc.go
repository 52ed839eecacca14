// Package otel publishes jwtgate admission metrics through an OpenTelemetry
// Meter.
//
// [NewOTelExporter] registers one Int64ObservableCounter per admission
// counter and one Int64ObservableGauge per latency bucket. A single callback
// reads [jwtgate.Gate.MetricsSnapshot] on each collection cycle. The caller
// owns the MeterProvider.
package otel
