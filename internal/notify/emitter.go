// Package notify delivers committed orders to real-time listeners. Delivery
// is best effort: the order is already durable when Notify runs, so nothing
// here can fail the sale.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ariefcatur/go-pos-orders/internal/orders"
)

const (
	defaultSendTimeout = 5 * time.Second
	queueSize          = 1024
)

type Sink interface {
	Name() string
	Send(ctx context.Context, env orders.Envelope) error
}

type job struct {
	ctx context.Context
	env orders.Envelope
}

// Emitter implements orders.Notifier. Events are queued and delivered by a
// single worker, so every sink sees them in the order Notify was called.
type Emitter struct {
	sinks    []Sink
	producer string
	timeout  time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	idle    *sync.Cond
	queue   chan job
	pending int
	closed  bool
	done    chan struct{}
}

func NewEmitter(producer string, log *slog.Logger, sinks ...Sink) *Emitter {
	e := &Emitter{
		sinks:    sinks,
		producer: producer,
		timeout:  defaultSendTimeout,
		log:      log.With("component", "notify"),
		done:     make(chan struct{}),
	}
	e.idle = sync.NewCond(&e.mu)
	if len(sinks) == 0 {
		close(e.done)
		return e
	}
	e.queue = make(chan job, queueSize)
	go e.run()
	return e
}

// Notify never blocks: a full queue or a closed emitter drops the event.
func (e *Emitter) Notify(ctx context.Context, event string, o orders.Order) {
	if e == nil || len(e.sinks) == 0 {
		return
	}
	env, err := orders.NewEnvelope(event, e.producer, o)
	if err != nil {
		e.log.Error("build envelope", "order_id", o.ID, "event", event, "error", err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		e.log.Warn("emitter closed, event dropped", "order_id", o.ID, "event", event)
		return
	}
	select {
	case e.queue <- job{ctx: context.WithoutCancel(ctx), env: env}:
		e.pending++
	default:
		e.log.Warn("notify queue full, event dropped", "order_id", o.ID, "event", event)
	}
}

func (e *Emitter) run() {
	defer close(e.done)
	for j := range e.queue {
		ctx, cancel := context.WithTimeout(j.ctx, e.timeout)
		for _, s := range e.sinks {
			e.send(ctx, s, j.env)
		}
		cancel()

		e.mu.Lock()
		e.pending--
		if e.pending == 0 {
			e.idle.Broadcast()
		}
		e.mu.Unlock()
	}
}

func (e *Emitter) send(ctx context.Context, s Sink, env orders.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("sink panicked", "sink", s.Name(), "event_id", env.EventID, "panic", r)
		}
	}()
	if err := s.Send(ctx, env); err != nil {
		e.log.Warn("notification failed", "sink", s.Name(), "event", env.EventType, "order_id", env.CorrelationID, "error", err)
		return
	}
	e.log.Debug("notification sent", "sink", s.Name(), "event", env.EventType, "order_id", env.CorrelationID)
}

// Wait blocks until every queued notification has been attempted.
func (e *Emitter) Wait() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.pending > 0 {
		e.idle.Wait()
	}
}

// Close stops accepting events, delivers what is queued and stops the
// worker. Safe to call more than once.
func (e *Emitter) Close() {
	if e == nil {
		return
	}
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		if e.queue != nil {
			close(e.queue)
		}
	}
	e.mu.Unlock()
	<-e.done
}
