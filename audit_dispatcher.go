package jwtgate

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher moves events off the request path. A single worker feeds
// the sink, so sinks need not be safe for concurrent use.
type auditDispatcher struct {
	sink       AuditSink
	queue      chan AuditEvent
	dropIfFull bool

	// mu is held for reading while a publish is in flight and for writing
	// while stopping, so no event can slip in after the final drain.
	mu       sync.RWMutex
	stopped  bool
	stop     chan struct{}
	sealed   chan struct{}
	finished chan struct{}
	stopOnce sync.Once

	dropped atomic.Uint64
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if isNilCapability(sink) {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		sink:       sink,
		queue:      make(chan AuditEvent, max(cfg.BufferSize, 1)),
		dropIfFull: cfg.DropIfFull,
		stop:       make(chan struct{}),
		sealed:     make(chan struct{}),
		finished:   make(chan struct{}),
	}
	go d.work()
	return d
}

func (d *auditDispatcher) work() {
	defer close(d.finished)
	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		case <-d.sealed:
			d.drain()
			return
		}
	}
}

func (d *auditDispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

// publish enqueues event. In drop mode a full queue counts a drop and
// returns at once. Otherwise it waits for room; giving up because ctx ended
// or the dispatcher stopped also counts as a drop. Events published after
// shutdown are discarded and counted.
func (d *auditDispatcher) publish(ctx context.Context, event AuditEvent) {
	if d == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.dropped.Add(1)
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.stop:
		d.dropped.Add(1)
	}
}

// shutdown stops the worker after it has handed every queued event to the
// sink. It is idempotent.
func (d *auditDispatcher) shutdown() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		// Wake blocked publishers first so they release the read lock.
		close(d.stop)
		d.mu.Lock()
		d.stopped = true
		d.mu.Unlock()
		close(d.sealed)
	})
	<-d.finished
}

// Dropped reports how many events never reached the sink.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
