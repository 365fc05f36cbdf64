package nats

import (
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub"
)

// natsMessage wraps a jetstream.Msg to implement pubsub.Message.
type natsMessage struct {
	msg jetstream.Msg
}

// WrapMessage wraps a jetstream.Msg as a pubsub.Message.
func WrapMessage(msg jetstream.Msg) pubsub.Message {
	return &natsMessage{msg: msg}
}

// Data returns the raw message payload.
func (m *natsMessage) Data() []byte {
	return m.msg.Data()
}

// Subject returns the message subject.
func (m *natsMessage) Subject() string {
	return m.msg.Subject()
}

// Key returns the ordering key the message was published with, if any.
func (m *natsMessage) Key() string {
	return m.msg.Headers().Get(keyHeader)
}

// Headers returns the transport-level headers of the message.
func (m *natsMessage) Headers() pubsub.Header {
	raw := m.msg.Headers()
	if raw == nil {
		return nil
	}
	h := pubsub.Header{}
	for k := range raw {
		if k == keyHeader {
			continue
		}
		h[k] = raw.Get(k)
	}
	return h
}

// Ack acknowledges successful processing.
func (m *natsMessage) Ack() error {
	return m.msg.Ack()
}

// Nak signals processing failure, requesting redelivery.
func (m *natsMessage) Nak() error {
	return m.msg.Nak()
}

// NakWithDelay requests redelivery after a delay.
func (m *natsMessage) NakWithDelay(delay time.Duration) error {
	return m.msg.NakWithDelay(delay)
}

// Term terminates the message (no redelivery).
func (m *natsMessage) Term() error {
	return m.msg.Term()
}

// Metadata returns delivery metadata.
func (m *natsMessage) Metadata() (pubsub.MessageMetadata, error) {
	md, err := m.msg.Metadata()
	if err != nil {
		return pubsub.MessageMetadata{}, err
	}
	return pubsub.MessageMetadata{
		NumDelivered: md.NumDelivered,
		Timestamp:    md.Timestamp,
		Subject:      m.msg.Subject(),
		Stream:       md.Stream,
		Consumer:     md.Consumer,
	}, nil
}
