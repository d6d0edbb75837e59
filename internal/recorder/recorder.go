// Package recorder buffers telemetry and flight events from the tick thread
// and writes them to a storage backend on its own goroutine.
package recorder

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aerocade/flightcore/internal/queue"
	"github.com/aerocade/flightcore/internal/storage"
	"github.com/aerocade/flightcore/pkg/core"
)

// Defaults for New.
const (
	DefaultFlushInterval = time.Second
	DefaultLimit         = 10000
)

// entry is one queued record; exactly one field is set.
type entry struct {
	telemetry *core.Telemetry
	lifecycle *core.LifecycleEvent
	throttle  *core.ThrottleEvent
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithFlushInterval sets how often the queue is drained.
func WithFlushInterval(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithLimit caps the queue; telemetry beyond it is dropped. Events are
// never dropped.
func WithLimit(n int) Option {
	return func(r *Recorder) { r.limit = n }
}

// WithSampleEvery records one telemetry frame in n. Events are unaffected.
func WithSampleEvery(n uint64) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.every = n
		}
	}
}

// WithLogger sets the logger for write errors.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.log = l
		}
	}
}

// Recorder is a flight.Presenter and flight.EventSink that never blocks the
// tick on storage.
type Recorder struct {
	backend  storage.Backend
	items    *queue.Queue[entry]
	interval time.Duration
	limit    int
	every    uint64
	log      *slog.Logger

	dropped  atomic.Uint64
	written  atomic.Uint64
	writeMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
	running  atomic.Bool
}

// New creates a recorder writing to backend.
func New(backend storage.Backend, opts ...Option) *Recorder {
	r := &Recorder{
		backend:  backend,
		items:    queue.New[entry](),
		interval: DefaultFlushInterval,
		limit:    DefaultLimit,
		every:    1,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Present queues a telemetry frame.
func (r *Recorder) Present(t core.Telemetry) {
	if t.Tick%r.every != 0 {
		return
	}
	if !r.items.TryPush(r.limit, entry{telemetry: &t}) {
		r.dropped.Add(1)
	}
}

// OnLifecycle queues a kill or respawn.
func (r *Recorder) OnLifecycle(e core.LifecycleEvent) {
	r.items.Push(entry{lifecycle: &e})
}

// OnThrottle queues a throttle change.
func (r *Recorder) OnThrottle(e core.ThrottleEvent) {
	r.items.Push(entry{throttle: &e})
}

// Start launches the flush goroutine. Calling it twice is a no-op.
func (r *Recorder) Start() {
	if !r.running.CompareAndSwap(false, true) {
		return
	}
	r.stopChan = make(chan struct{})
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.stopChan:
				return
			case <-ticker.C:
				if err := r.Flush(); err != nil {
					r.log.Error("recorder flush failed", "error", err)
				}
			}
		}
	}()
}

// Stop ends the flush goroutine and writes what is left.
func (r *Recorder) Stop() error {
	if r.running.CompareAndSwap(true, false) {
		close(r.stopChan)
		<-r.done
	}
	return r.Flush()
}

// Flush writes every queued record to the backend in arrival order.
// Failed records are logged and not retried.
func (r *Recorder) Flush() error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var errs []error
	r.items.Drain(func(e entry) {
		var err error
		switch {
		case e.telemetry != nil:
			err = r.backend.RecordTelemetry(e.telemetry)
		case e.lifecycle != nil:
			err = r.backend.RecordLifecycleEvent(e.lifecycle)
		case e.throttle != nil:
			err = r.backend.RecordThrottleEvent(e.throttle)
		}
		if err != nil {
			errs = append(errs, err)
			return
		}
		r.written.Add(1)
	})

	if len(errs) > 0 {
		return fmt.Errorf("%d records failed: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// Pending returns the number of queued records.
func (r *Recorder) Pending() int {
	return r.items.Len()
}

// Dropped returns how many telemetry frames were dropped on a full queue.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Written returns how many records reached the backend.
func (r *Recorder) Written() uint64 {
	return r.written.Load()
}
