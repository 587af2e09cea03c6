// Package dispatcher routes streaming envelopes to the handler registered
// for their message type.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tmcoach/board/pkg/streaming"
)

const instrumentationName = "github.com/tmcoach/board/internal/dispatcher"

var (
	// ErrUnknownType is returned by Dispatch for unregistered message types
	ErrUnknownType = errors.New("unknown message type")
	// ErrQueueFull is returned by non-blocking buffered handlers
	ErrQueueFull = errors.New("queue full")
)

// HandlerFunc processes an envelope and returns the ack payload.
type HandlerFunc func(ctx context.Context, env streaming.Envelope) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered runs the handler on a single worker fed by a queue of the given
// size. Requests of that type are then handled one at a time in arrival
// order, whichever connection sent them.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered handler wait for queue space instead of failing.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

type request struct {
	ctx   context.Context
	env   streaming.Envelope
	reply chan result
}

type result struct {
	payload any
	err     error
}

// Dispatcher routes envelopes to registered handlers.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	failed    metric.Int64Counter
	dropped   metric.Int64Counter

	// Track buffers for gauge callback
	mu      sync.RWMutex
	buffers map[string]chan request
	closed  bool
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		buffers:  make(map[string]chan request),
		logger:   logger,
	}

	m := otel.Meter(instrumentationName)

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of requests waiting in a handler queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for typ, buf := range d.buffers {
				o.ObserveInt64(d.queueSize, int64(len(buf)),
					metric.WithAttributes(attribute.String("type", typ)))
			}
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.requests.processed",
		metric.WithDescription("Total requests handled"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.failed, err = m.Int64Counter(
		"dispatcher.requests.failed",
		metric.WithDescription("Total requests whose handler returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.requests.dropped",
		metric.WithDescription("Total requests rejected due to a full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given message type with optional configuration.
func (d *Dispatcher) Register(typ string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := d.withMetrics(typ, h)

	if cfg.bufferSize > 0 {
		handler = d.withBuffer(typ, cfg.bufferSize, cfg.blocking, handler)
	}

	if cfg.logged {
		handler = d.withLogging(typ, handler)
	}

	d.handlers[typ] = handler
}

// Dispatch routes an envelope to its registered handler.
func (d *Dispatcher) Dispatch(ctx context.Context, env streaming.Envelope) (any, error) {
	h, ok := d.handlers[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	return h(ctx, env)
}

// HasHandler returns true if a handler is registered for the message type.
func (d *Dispatcher) HasHandler(typ string) bool {
	_, ok := d.handlers[typ]
	return ok
}

// Types returns the registered message types, sorted
func (d *Dispatcher) Types() []string {
	types := make([]string, 0, len(d.handlers))
	for t := range d.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Close stops the buffer workers. Requests already queued are still handled.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for _, buf := range d.buffers {
		close(buf)
	}
}

func (d *Dispatcher) withMetrics(typ string, h HandlerFunc) HandlerFunc {
	typAttr := metric.WithAttributes(attribute.String("type", typ))
	return func(ctx context.Context, env streaming.Envelope) (any, error) {
		payload, err := h(ctx, env)
		d.processed.Add(ctx, 1, typAttr)
		if err != nil {
			d.failed.Add(ctx, 1, typAttr)
		}
		return payload, err
	}
}

func (d *Dispatcher) withBuffer(typ string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	buffer := make(chan request, size)

	d.mu.Lock()
	d.buffers[typ] = buffer
	d.mu.Unlock()

	typAttr := metric.WithAttributes(attribute.String("type", typ))

	go func() {
		for req := range buffer {
			payload, err := h(req.ctx, req.env)
			req.reply <- result{payload: payload, err: err}
		}
	}()

	return func(ctx context.Context, env streaming.Envelope) (any, error) {
		req := request{ctx: ctx, env: env, reply: make(chan result, 1)}

		d.mu.RLock()
		if d.closed {
			d.mu.RUnlock()
			return nil, fmt.Errorf("dispatcher closed: %s", typ)
		}
		if blocking {
			select {
			case buffer <- req:
			case <-ctx.Done():
				d.mu.RUnlock()
				return nil, ctx.Err()
			}
		} else {
			select {
			case buffer <- req:
			default:
				d.mu.RUnlock()
				d.dropped.Add(ctx, 1, typAttr)
				return nil, fmt.Errorf("%w: %s", ErrQueueFull, typ)
			}
		}
		d.mu.RUnlock()

		select {
		case res := <-req.reply:
			return res.payload, res.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (d *Dispatcher) withLogging(typ string, h HandlerFunc) HandlerFunc {
	return func(ctx context.Context, env streaming.Envelope) (any, error) {
		start := time.Now()
		d.logger.Debug("handling request", "type", typ, "id", env.ID)

		payload, err := h(ctx, env)

		if err != nil {
			d.logger.Error("request failed", "type", typ, "id", env.ID, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("request complete", "type", typ, "id", env.ID, "duration", time.Since(start))
		}

		return payload, err
	}
}
