package memory

import (
	"context"

	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub"
)

// memoryConsumer implements pubsub.Consumer for the in-memory engine.
type memoryConsumer struct {
	broker *broker
	opts   pubsub.ConsumerOptions
}

var _ pubsub.Consumer = (*memoryConsumer)(nil)

// Subscribe starts consuming messages matching the consumer's filter subject.
// The returned channel is closed when the context is cancelled.
func (c *memoryConsumer) Subscribe(ctx context.Context) (<-chan pubsub.Message, error) {
	filterSubject := c.opts.FilterSubject
	if filterSubject == "" {
		filterSubject = c.opts.StreamName + ".>"
	}

	bufSize := c.opts.ChannelBufSize
	if bufSize <= 0 {
		bufSize = pubsub.DefaultConsumerOptions().ChannelBufSize
	}

	msgCh, unsubscribe, err := c.broker.subscribe(ctx, c.opts.StreamName, c.opts.ConsumerName, filterSubject, bufSize)
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	return msgCh, nil
}
