package memory

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub"
)

// memoryMessage implements pubsub.Message for the in-memory engine.
type memoryMessage struct {
	data         []byte
	subject      string
	key          string
	headers      pubsub.Header
	timestamp    time.Time
	numDelivered uint64
	stream       string
	consumer     string

	redeliveryCh chan pubsub.Message
	subCtx       context.Context
	settled      atomic.Bool
}

var _ pubsub.Message = (*memoryMessage)(nil)

func (m *memoryMessage) Data() []byte           { return m.data }
func (m *memoryMessage) Subject() string        { return m.subject }
func (m *memoryMessage) Key() string            { return m.key }
func (m *memoryMessage) Headers() pubsub.Header { return m.headers }

// Ack acknowledges successful processing.
func (m *memoryMessage) Ack() error {
	m.settled.Store(true)
	return nil
}

// Nak requests immediate redelivery.
func (m *memoryMessage) Nak() error {
	return m.NakWithDelay(0)
}

// NakWithDelay requests redelivery after a delay.
func (m *memoryMessage) NakWithDelay(delay time.Duration) error {
	if m.settled.Swap(true) {
		return nil
	}

	redeliver := func() {
		next := &memoryMessage{
			data:         m.data,
			subject:      m.subject,
			key:          m.key,
			headers:      m.headers,
			timestamp:    m.timestamp,
			numDelivered: m.numDelivered + 1,
			stream:       m.stream,
			consumer:     m.consumer,
			redeliveryCh: m.redeliveryCh,
			subCtx:       m.subCtx,
		}
		select {
		case m.redeliveryCh <- next:
		case <-m.subCtx.Done():
		}
	}

	if delay <= 0 {
		go redeliver()
		return nil
	}
	time.AfterFunc(delay, redeliver)
	return nil
}

// Term terminates the message (no redelivery).
func (m *memoryMessage) Term() error {
	m.settled.Store(true)
	return nil
}

// Metadata returns delivery metadata.
func (m *memoryMessage) Metadata() (pubsub.MessageMetadata, error) {
	return pubsub.MessageMetadata{
		NumDelivered: m.numDelivered,
		Timestamp:    m.timestamp,
		Subject:      m.subject,
		Stream:       m.stream,
		Consumer:     m.consumer,
	}, nil
}
