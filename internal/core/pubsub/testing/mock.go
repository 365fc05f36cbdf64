// Package testing provides mock implementations of pubsub interfaces for tests.
package testing

import (
	"context"
	"sync"
	"time"

	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub"
)

// PublishedMessage represents a message that was published.
type PublishedMessage struct {
	Subject string
	Data    []byte
	Key     string
	Headers pubsub.Header
}

// MockPublisher is a mock implementation of pubsub.Publisher.
type MockPublisher struct {
	mu       sync.Mutex
	messages []PublishedMessage
	err      error
	closed   bool
}

var _ pubsub.Publisher = (*MockPublisher)(nil)

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records the message.
func (m *MockPublisher) Publish(_ context.Context, subject string, data []byte, opts ...pubsub.PublishOpt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	var cfg pubsub.PublishConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	m.messages = append(m.messages, PublishedMessage{
		Subject: subject,
		Data:    append([]byte(nil), data...), // Copy to avoid mutation
		Key:     cfg.Key,
		Headers: cfg.Headers,
	})
	return nil
}

// Close marks the publisher as closed.
func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetError makes subsequent Publish calls fail with err.
func (m *MockPublisher) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Messages returns all published messages.
func (m *MockPublisher) Messages() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedMessage(nil), m.messages...)
}

// Closed reports whether Close was called.
func (m *MockPublisher) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockConsumer is a mock implementation of pubsub.Consumer. Tests push
// messages through Deliver.
type MockConsumer struct {
	mu     sync.Mutex
	ch     chan pubsub.Message
	err    error
	subbed bool
}

var _ pubsub.Consumer = (*MockConsumer)(nil)

// NewMockConsumer creates a new MockConsumer.
func NewMockConsumer() *MockConsumer {
	return &MockConsumer{ch: make(chan pubsub.Message, 64)}
}

// SetError makes Subscribe fail with err.
func (m *MockConsumer) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Subscribe returns the mock's message channel.
func (m *MockConsumer) Subscribe(ctx context.Context) (<-chan pubsub.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.subbed = true
	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.subbed {
			m.subbed = false
			close(m.ch)
		}
	}()
	return m.ch, nil
}

// Subscribed reports whether Subscribe succeeded.
func (m *MockConsumer) Subscribed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subbed
}

// Deliver pushes a message to the subscriber.
func (m *MockConsumer) Deliver(msg pubsub.Message) {
	m.ch <- msg
}

// MockMessage is a mock implementation of pubsub.Message.
type MockMessage struct {
	MsgData    []byte
	MsgSubject string
	MsgKey     string
	MsgHeaders pubsub.Header
	Delivered  uint64

	mu      sync.Mutex
	acked   bool
	naked   bool
	termed  bool
	nakWait time.Duration
}

var _ pubsub.Message = (*MockMessage)(nil)

func (m *MockMessage) Data() []byte           { return m.MsgData }
func (m *MockMessage) Subject() string        { return m.MsgSubject }
func (m *MockMessage) Key() string            { return m.MsgKey }
func (m *MockMessage) Headers() pubsub.Header { return m.MsgHeaders }

func (m *MockMessage) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = true
	return nil
}

func (m *MockMessage) Nak() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.naked = true
	return nil
}

func (m *MockMessage) NakWithDelay(delay time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.naked = true
	m.nakWait = delay
	return nil
}

func (m *MockMessage) Term() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.termed = true
	return nil
}

func (m *MockMessage) Metadata() (pubsub.MessageMetadata, error) {
	delivered := m.Delivered
	if delivered == 0 {
		delivered = 1
	}
	return pubsub.MessageMetadata{
		NumDelivered: delivered,
		Timestamp:    time.Now(),
		Subject:      m.MsgSubject,
	}, nil
}

// Acked reports whether Ack was called.
func (m *MockMessage) Acked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acked
}

// Naked reports whether Nak/NakWithDelay was called.
func (m *MockMessage) Naked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.naked
}

// Termed reports whether Term was called.
func (m *MockMessage) Termed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.termed
}
