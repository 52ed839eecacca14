// Package internaldefs holds the metric names and bucket bounds shared by the
// Prometheus and OTel exporters, so both render identical series.
//
// This package performs no I/O and does not import any exporter.
package internaldefs
