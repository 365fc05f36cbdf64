package memory

import (
	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub"
)

// Compile-time check that Engine implements pubsub.Provider.
var _ pubsub.Provider = (*Engine)(nil)

// Engine provides the public API for in-memory pubsub.
// It mirrors the NATS JetStream semantics for consistent usage in tests and
// single-process deployments.
type Engine struct {
	broker *broker
}

// New creates a new in-memory pubsub engine.
func New() *Engine {
	return &Engine{broker: newBroker()}
}

// NewPublisher creates a new in-memory Publisher.
func (e *Engine) NewPublisher(opts pubsub.PublisherOptions) (pubsub.Publisher, error) {
	if e.IsClosed() {
		return nil, ErrEngineClosed
	}
	return &memoryPublisher{broker: e.broker, opts: opts}, nil
}

// NewConsumer creates a new in-memory Consumer.
func (e *Engine) NewConsumer(opts pubsub.ConsumerOptions) (pubsub.Consumer, error) {
	if e.IsClosed() {
		return nil, ErrEngineClosed
	}
	return &memoryConsumer{broker: e.broker, opts: opts}, nil
}

// NewAdmin returns an admin session over the engine's broker. The session
// holds no resources of its own, but callers close it like any other.
func (e *Engine) NewAdmin() (pubsub.Admin, error) {
	if e.IsClosed() {
		return nil, ErrEngineClosed
	}
	return &memoryAdmin{broker: e.broker}, nil
}

// Close shuts down the engine and all subscriptions.
func (e *Engine) Close() error {
	return e.broker.close()
}

// IsClosed returns true if the engine is closed.
func (e *Engine) IsClosed() bool {
	return e.broker.isClosed()
}
