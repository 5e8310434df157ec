package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls whether events are recorded and how the queue behaves
// under back-pressure.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards events when the queue is full instead of making
	// the request wait for the sink.
	DropIfFull bool
}

// Dispatcher decouples request paths from a slow sink. One worker goroutine
// delivers queued events in emission order.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool

	mu     sync.RWMutex // held for reading around every send on queue
	closed bool
	queue  chan Event

	stopped chan struct{}
	dropped atomic.Uint64
}

// NewDispatcher returns nil when cfg is disabled. A nil *Dispatcher accepts
// every call and records nothing.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan Event, max(cfg.BufferSize, 1)),
		stopped:    make(chan struct{}),
	}
	go d.drain()
	return d
}

func (d *Dispatcher) drain() {
	defer close(d.stopped)
	for event := range d.queue {
		d.deliver(event)
	}
}

// deliver isolates sink panics to the event that caused them.
func (d *Dispatcher) deliver(event Event) {
	defer func() { _ = recover() }()
	d.sink.Emit(context.Background(), event)
}

// Emit queues event. In blocking mode it waits for room until ctx ends; an
// event abandoned that way counts as dropped. Emits after Close are ignored.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
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
	}
}

// Close stops intake, delivers what is queued and waits for the worker.
// It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.stopped
}

// Dropped reports events discarded by a full queue or a cancelled emit.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
