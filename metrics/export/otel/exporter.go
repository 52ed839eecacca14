package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrEthical07/jwtgate"
	"github.com/MrEthical07/jwtgate/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// MetricsSource is what the exporter reads. *jwtgate.Gate implements it.
type MetricsSource interface {
	MetricsSnapshot() jwtgate.MetricsSnapshot
	AuditDropped() uint64
}

type boundSeries struct {
	id  jwtgate.MetricID
	set metric.MeasurementOption
}

type boundFamily struct {
	counter metric.Int64ObservableCounter
	series  []boundSeries
}

type boundHistogram struct {
	id      jwtgate.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
	le      [8]metric.MeasurementOption
}

// OTelExporter observes a gate through asynchronous instruments. Counter
// families become one instrument with an attribute set per series.
// Histogram buckets are reported cumulatively on a gauge keyed by "le".
type OTelExporter struct {
	source       MetricsSource
	registration metric.Registration
	families     []boundFamily
	histograms   []boundHistogram
	auditDropped metric.Int64ObservableCounter
}

// NewOTelExporter registers instruments on meter that observe gate.
func NewOTelExporter(meter metric.Meter, gate *jwtgate.Gate) (*OTelExporter, error) {
	if gate == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, gate)
}

func NewOTelExporterFromSource(meter metric.Meter, source MetricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	var observables []metric.Observable

	for _, f := range internaldefs.Families {
		counter, err := meter.Int64ObservableCounter(f.Name, metric.WithDescription(f.Help), metric.WithUnit("{request}"))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", f.Name, err)
		}
		bf := boundFamily{counter: counter}
		for _, s := range f.Series {
			bf.series = append(bf.series, boundSeries{id: s.ID, set: metric.WithAttributeSet(labelSet(s.Labels))})
		}
		e.families = append(e.families, bf)
		observables = append(observables, counter)
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets, err := meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription(def.Help+" Cumulative count per upper bound."))
		if err != nil {
			return nil, fmt.Errorf("create gauge %s_bucket: %w", def.Name, err)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription(def.Help+" Total samples."))
		if err != nil {
			return nil, fmt.Errorf("create gauge %s_count: %w", def.Name, err)
		}
		h := boundHistogram{id: def.ID, buckets: buckets, count: count}
		for i, le := range internaldefs.HistogramBounds {
			h.le[i] = metric.WithAttributes(attribute.String("le", le))
		}
		e.histograms = append(e.histograms, h)
		observables = append(observables, buckets, count)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription("Audit events dropped by the dispatcher."))
	if err != nil {
		return nil, fmt.Errorf("create counter %s: %w", internaldefs.AuditDroppedName, err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	if len(snapshot.Counters) > 0 {
		for _, f := range e.families {
			for _, s := range f.series {
				o.ObserveInt64(f.counter, int64(snapshot.Counters[s.id]), s.set)
			}
		}
	}
	for _, h := range e.histograms {
		raw, ok := snapshot.Histograms[h.id]
		if !ok {
			continue
		}
		buckets := internaldefs.Buckets(raw)
		for i, v := range buckets {
			o.ObserveInt64(h.buckets, int64(v), h.le[i])
		}
		o.ObserveInt64(h.count, int64(buckets[len(buckets)-1]))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

func labelSet(labels []internaldefs.Label) attribute.Set {
	kvs := make([]attribute.KeyValue, 0, len(labels))
	for _, l := range labels {
		kvs = append(kvs, attribute.String(l.Name, l.Value))
	}
	return attribute.NewSet(kvs...)
}

// Close unregisters the callback. The instruments stay on the meter but
// report nothing further.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
