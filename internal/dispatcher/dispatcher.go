package dispatcher

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aerocade/flightcore/internal/queue"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Event represents an incoming scripting command.
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	deferred bool
	limit    int
	logged   bool
	validate func(Event) error
}

// Deferred queues the event instead of running it. Queued events run on
// the goroutine that calls Drain. At most limit events wait at once; a
// limit <= 0 means unbounded.
func Deferred(limit int) Option {
	return func(c *config) {
		c.deferred = true
		c.limit = limit
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Validate checks an event before it is handled or queued. A rejected
// event returns the error to the caller and never reaches the handler.
func Validate(fn func(Event) error) Option {
	return func(c *config) {
		c.validate = fn
	}
}

type pending struct {
	event   Event
	handler HandlerFunc
}

// Dispatcher routes events to registered handlers. Register before the
// first Dispatch; Dispatch itself may be called from any goroutine.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger
	pending  *queue.Queue[pending]

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	deferred  metric.Int64Counter
	dropped   metric.Int64Counter
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = nopLogger{}
	}
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		pending:  queue.New[pending](),
		logger:   logger,
	}

	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Deferred events waiting for the next drain"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(d.queueSize, int64(d.pending.Len()))
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total events processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.deferred, err = m.Int64Counter(
		"dispatcher.events.deferred",
		metric.WithDescription("Total events queued for the tick thread"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating deferred counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.events.dropped",
		metric.WithDescription("Total events dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given command with optional configuration.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h

	if cfg.logged {
		handler = d.withLogging(command, handler)
	}

	if cfg.deferred {
		handler = d.withQueue(command, cfg.limit, handler)
	} else {
		handler = d.withCount(command, handler)
	}

	if cfg.validate != nil {
		handler = withValidation(command, cfg.validate, handler)
	}

	d.handlers[command] = handler
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	h, ok := d.handlers[e.Command]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", e.Command)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return h(e)
}

// Drain runs every deferred event queued so far, in arrival order, on the
// calling goroutine. Handler errors are logged, not returned.
func (d *Dispatcher) Drain() int {
	return d.pending.Drain(func(p pending) {
		if _, err := p.handler(p.event); err != nil {
			d.logger.Error("deferred event failed", "command", p.event.Command, "error", err)
		}
		d.processed.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("command", p.event.Command)))
	})
}

// Pending returns the number of deferred events waiting.
func (d *Dispatcher) Pending() int {
	return d.pending.Len()
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	_, ok := d.handlers[command]
	return ok
}

// Commands lists registered commands in sorted order.
func (d *Dispatcher) Commands() []string {
	out := make([]string, 0, len(d.handlers))
	for cmd := range d.handlers {
		out = append(out, cmd)
	}
	sort.Strings(out)
	return out
}

func (d *Dispatcher) withQueue(command string, limit int, h HandlerFunc) HandlerFunc {
	cmdAttr := attribute.String("command", command)

	return func(e Event) (any, error) {
		if !d.pending.TryPush(limit, pending{event: e, handler: h}) {
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(cmdAttr))
			return nil, fmt.Errorf("queue full: %s", command)
		}
		d.deferred.Add(context.Background(), 1, metric.WithAttributes(cmdAttr))
		return "queued", nil
	}
}

func withValidation(command string, validate func(Event) error, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		if err := validate(e); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", command, err)
		}
		return h(e)
	}
}

func (d *Dispatcher) withCount(command string, h HandlerFunc) HandlerFunc {
	cmdAttr := attribute.String("command", command)

	return func(e Event) (any, error) {
		result, err := h(e)
		d.processed.Add(context.Background(), 1, metric.WithAttributes(cmdAttr))
		return result, err
	}
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "args", len(e.Args))

		result, err := h(e)

		if err != nil {
			d.logger.Error("event failed", "command", command, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "command", command, "duration", time.Since(start))
		}

		return result, err
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
