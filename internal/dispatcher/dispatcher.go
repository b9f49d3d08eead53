// Package dispatcher routes inbound traffic command payloads to handlers
// by channel. A channel is usually one traffic participant; buffered
// channels are drained by their own goroutine so commands of one
// participant are handled in arrival order while participants run
// concurrently.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrUnknownChannel is returned by Dispatch when no handler is registered.
	ErrUnknownChannel = errors.New("unknown channel")
	// ErrQueueFull is returned when a non-blocking buffered channel is full.
	ErrQueueFull = errors.New("queue full")
	// ErrClosed is returned by Dispatch after Close.
	ErrClosed = errors.New("dispatcher closed")
)

// Queued is the result returned for events accepted by a buffered channel.
const Queued = "queued"

// Event is one inbound payload.
type Event struct {
	Channel  string
	Source   string // file name, connection id, ...
	Payload  []byte
	Received time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger is satisfied by the zerolog adapter in internal/logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*options)

type options struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered runs the handler on its own goroutine behind a queue of size.
func Buffered(size int) Option {
	return func(o *options) { o.bufferSize = size }
}

// Blocking makes Dispatch wait for room in a full queue instead of
// failing with ErrQueueFull.
func Blocking() Option {
	return func(o *options) { o.blocking = true }
}

// Logged adds debug logging around the handler.
func Logged() Option {
	return func(o *options) { o.logged = true }
}

// queue is the goroutine behind a buffered channel.
type queue struct {
	name     string
	events   chan Event
	blocking bool
}

func (q *queue) push(e Event, ins *instruments) (any, error) {
	if q.blocking {
		q.events <- e
		return Queued, nil
	}
	select {
	case q.events <- e:
		return Queued, nil
	default:
		ins.dropped.Add(context.Background(), 1, channelAttr(q.name))
		return nil, fmt.Errorf("%w: %s", ErrQueueFull, q.name)
	}
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	log Logger
	ins *instruments

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	fallback HandlerFunc
	queues   []*queue
	closed   bool
	drain    sync.WaitGroup
}

// New creates a Dispatcher. Metrics go to the global OTel meter, which is
// a no-op unless a provider was installed.
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		log:      logger,
		handlers: make(map[string]HandlerFunc),
	}
	ins, err := newInstruments(d.queueDepths)
	if err != nil {
		return nil, err
	}
	d.ins = ins
	return d, nil
}

func (d *Dispatcher) queueDepths(observe func(string, int)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, q := range d.queues {
		observe(q.name, len(q.events))
	}
}

// Register adds a handler for channel. Registering the same channel twice
// replaces the handler; a buffered predecessor keeps draining its queue.
func (d *Dispatcher) Register(channel string, h HandlerFunc, opts ...Option) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[channel] = d.build(channel, h, opts)
}

// RegisterFallback installs the handler used for channels that have no
// handler of their own.
func (d *Dispatcher) RegisterFallback(h HandlerFunc, opts ...Option) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fallback = d.build("*", h, opts)
}

// build must be called with d.mu held.
func (d *Dispatcher) build(channel string, h HandlerFunc, opts []Option) HandlerFunc {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.bufferSize > 0 {
		h = d.startQueue(channel, o.bufferSize, o.blocking, h)
	}
	if o.logged {
		h = d.logged(channel, h)
	}
	return h
}

// startQueue must be called with d.mu held.
func (d *Dispatcher) startQueue(channel string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	q := &queue{name: channel, events: make(chan Event, size), blocking: blocking}
	d.queues = append(d.queues, q)

	d.drain.Add(1)
	go func() {
		defer d.drain.Done()
		attr := channelAttr(channel)
		for e := range q.events {
			_, _ = h(e)
			d.ins.processed.Add(context.Background(), 1, attr)
		}
	}()

	return func(e Event) (any, error) { return q.push(e, d.ins) }
}

func (d *Dispatcher) logged(channel string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.log.Debug("handling command", "channel", channel, "source", e.Source, "bytes", len(e.Payload))

		result, err := h(e)
		if err != nil {
			d.log.Error("command failed", "channel", channel, "source", e.Source, "duration", time.Since(start), "error", err)
			return result, err
		}
		d.log.Debug("command complete", "channel", channel, "source", e.Source, "duration", time.Since(start))
		return result, nil
	}
}

// Dispatch routes an event to its channel handler, or to the fallback.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return nil, ErrClosed
	}
	h, ok := d.handlers[e.Channel]
	if !ok {
		h = d.fallback
	}
	d.mu.RUnlock()

	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, e.Channel)
	}
	if e.Received.IsZero() {
		e.Received = time.Now()
	}
	return h(e)
}

// HasHandler reports whether channel has a handler of its own.
func (d *Dispatcher) HasHandler(channel string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[channel]
	return ok
}

// Close stops accepting events and waits until every buffered queue is
// drained. Callers must stop dispatching before calling Close.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q.events)
	}
	d.mu.Unlock()

	d.drain.Wait()
}
