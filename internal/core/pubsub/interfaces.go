// Package pubsub provides a generic pub/sub abstraction for message-based
// communication between the event core and its broker.
package pubsub

import (
	"context"
	"time"
)

// Header carries transport-level metadata alongside a message payload,
// allowing consumers to filter without deserializing the body.
type Header map[string]string

// Get returns the value for key, "" when absent. Safe on a nil Header.
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	return h[key]
}

// Message represents a received message with acknowledgment controls.
type Message interface {
	// Data returns the raw message payload.
	Data() []byte

	// Subject returns the message subject/topic.
	Subject() string

	// Key returns the ordering key the message was published with, if any.
	Key() string

	// Headers returns the transport-level headers of the message.
	Headers() Header

	// Ack acknowledges successful processing.
	Ack() error

	// Nak signals processing failure, requesting redelivery.
	Nak() error

	// NakWithDelay requests redelivery after a delay.
	NakWithDelay(delay time.Duration) error

	// Term terminates the message (no redelivery).
	Term() error

	// Metadata returns delivery metadata.
	Metadata() (MessageMetadata, error)
}

// MessageMetadata contains delivery information about a message.
type MessageMetadata struct {
	NumDelivered uint64
	Timestamp    time.Time
	Subject      string
	Stream       string
	Consumer     string
}

// Publisher publishes messages to a stream.
type Publisher interface {
	// Publish sends a message to the specified subject. An ordering key and
	// headers may be attached through options.
	Publish(ctx context.Context, subject string, data []byte, opts ...PublishOpt) error

	// Close releases resources.
	Close() error
}

// Consumer consumes messages from a stream.
type Consumer interface {
	// Subscribe starts consuming messages and returns a channel.
	// The channel is closed when the context is cancelled or an error occurs.
	// Caller is responsible for calling Ack/Nak/Term on each message.
	Subscribe(ctx context.Context) (<-chan Message, error)
}

// TopicInfo describes a topic/stream known to the broker.
type TopicInfo struct {
	Name       string
	Partitions int
	Replicas   int
	Subjects   []string
	Messages   uint64
	Created    time.Time
}

// TopicConfig configures topic creation.
type TopicConfig struct {
	Partitions int
	Replicas   int
}

// DefaultTopicConfig returns the standard topic shape: 3 partitions,
// replication factor 1.
func DefaultTopicConfig() TopicConfig {
	return TopicConfig{Partitions: 3, Replicas: 1}
}

// Admin performs administrative operations against the broker. Admin sessions
// are short-lived: callers must Close them after use, including on error.
type Admin interface {
	// TopicMetadata fetches metadata for an existing topic.
	TopicMetadata(ctx context.Context, topic string) (TopicInfo, error)

	// CreateTopic creates a topic with the given configuration.
	CreateTopic(ctx context.Context, topic string, cfg TopicConfig) error

	// Close releases the admin session.
	Close() error
}
