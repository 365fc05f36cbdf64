package pubsub

import "time"

// StorageType defines the storage backend for streams.
type StorageType int

const (
	// MemoryStorage stores data in memory (default).
	MemoryStorage StorageType = iota
	// FileStorage stores data on disk.
	FileStorage
)

// PublisherOptions configures publisher behavior.
type PublisherOptions struct {
	// StreamName is the name of the stream to publish to.
	StreamName string

	// SubjectPrefix is prepended to all subjects.
	SubjectPrefix string

	// Storage is the storage type for the stream.
	// Defaults to MemoryStorage.
	Storage StorageType

	// OnPublish is called after each publish attempt (for metrics).
	OnPublish func(subject string, err error, latency time.Duration)
}

// ConsumerOptions configures consumer behavior.
type ConsumerOptions struct {
	// StreamName is the name of the stream to consume from.
	StreamName string

	// ConsumerName is the durable consumer-group name.
	ConsumerName string

	// FilterSubject filters messages by subject pattern.
	FilterSubject string

	// ChannelBufSize is the buffer size for the message channel.
	ChannelBufSize int

	// Storage is the storage type for the stream.
	// Defaults to MemoryStorage.
	Storage StorageType
}

// DefaultConsumerOptions returns ConsumerOptions with sensible defaults.
func DefaultConsumerOptions() ConsumerOptions {
	return ConsumerOptions{
		ChannelBufSize: 100,
	}
}

// PublishConfig is the per-publish configuration assembled from PublishOpts.
type PublishConfig struct {
	// Key is the ordering key. Messages sharing a key keep their relative
	// publish order within a partition.
	Key string

	// Headers are attached to the message as transport-level metadata.
	Headers Header
}

// PublishOpt configures a single Publish call.
type PublishOpt func(*PublishConfig)

// WithKey attaches an ordering key to the published message.
func WithKey(key string) PublishOpt {
	return func(c *PublishConfig) {
		c.Key = key
	}
}

// WithHeaders attaches headers to the published message.
func WithHeaders(h Header) PublishOpt {
	return func(c *PublishConfig) {
		if c.Headers == nil {
			c.Headers = Header{}
		}
		for k, v := range h {
			c.Headers[k] = v
		}
	}
}
