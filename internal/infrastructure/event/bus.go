package event

import (
	"context"
	"errors"
	"sync"

	"github.com/flock/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusStopped is returned when publishing to an async bus that has been stopped
var ErrBusStopped = errors.New("event bus stopped")

// InMemoryEventBus delivers domain events to in-process handlers.
//
// By default delivery is synchronous: Publish returns after every handler ran.
// WithAsync queues events for a single dispatcher goroutine started by Start,
// so handlers see events in publish order; until Start it delivers
// synchronously. Handler errors and panics are
// logged and never reach the publisher.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger

	queueSize int
	mu        sync.RWMutex
	queue     chan envelope
	done      chan struct{}
	stopped   bool
}

type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// Option configures an InMemoryEventBus
type Option func(*InMemoryEventBus)

// WithAsync enables queued delivery with the given buffer size
func WithAsync(queueSize int) Option {
	return func(b *InMemoryEventBus) {
		if queueSize < 1 {
			queueSize = 1
		}
		b.queueSize = queueSize
	}
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...Option) *InMemoryEventBus {
	b := &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger.Named("event_bus"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers events to their handlers
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.queue == nil {
		if b.stopped && b.queueSize > 0 {
			return ErrBusStopped
		}
		for _, e := range events {
			b.deliver(ctx, e)
		}
		return nil
	}

	for _, e := range events {
		select {
		case b.queue <- envelope{ctx: context.WithoutCancel(ctx), event: e}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe registers a handler. Without explicit types the handler's own EventTypes are used.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start launches the dispatcher when async delivery is enabled
func (b *InMemoryEventBus) Start(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.queueSize == 0 || b.queue != nil {
		return nil
	}
	b.queue = make(chan envelope, b.queueSize)
	b.done = make(chan struct{})
	b.stopped = false
	go b.dispatch(b.queue, b.done)
	b.logger.Info("Event bus started", zap.Int("queue_size", b.queueSize))
	return nil
}

// Stop drains queued events and waits for the dispatcher, or for ctx to end
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	queue, done := b.queue, b.done
	b.queue, b.done = nil, nil
	b.stopped = true
	b.mu.Unlock()

	if queue == nil {
		return nil
	}
	close(queue)

	select {
	case <-done:
		b.logger.Info("Event bus stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *InMemoryEventBus) dispatch(queue <-chan envelope, done chan<- struct{}) {
	defer close(done)
	for env := range queue {
		b.deliver(env.ctx, env.event)
	}
}

func (b *InMemoryEventBus) deliver(ctx context.Context, e shared.DomainEvent) {
	for _, h := range b.registry.Handlers(e.EventType()) {
		if err := b.safeHandle(ctx, h, e); err != nil {
			b.logger.Error("Handler failed to process event",
				zap.String("event_type", e.EventType()),
				zap.String("event_id", e.EventID().String()),
				zap.Error(err),
			)
		}
	}
}

func (b *InMemoryEventBus) safeHandle(ctx context.Context, h shared.EventHandler, e shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Handler panicked",
				zap.String("event_type", e.EventType()),
				zap.Any("panic", r),
			)
		}
	}()
	return h.Handle(ctx, e)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
