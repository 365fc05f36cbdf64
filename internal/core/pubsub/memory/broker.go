package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub"
)

// topicState tracks admin-visible state for a created topic.
type topicState struct {
	cfg      pubsub.TopicConfig
	messages uint64
	created  time.Time
}

// broker manages in-memory message routing. Not exported.
type broker struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	topics        map[string]*topicState
	closed        atomic.Bool
}

// subscription represents a single consumer's subscription.
type subscription struct {
	pattern    string
	stream     string
	consumer   string
	msgCh      chan pubsub.Message
	ctx        context.Context
	cancelFunc context.CancelFunc
}

func newBroker() *broker {
	return &broker{
		subscriptions: make(map[string]*subscription),
		topics:        make(map[string]*topicState),
	}
}

// publish sends a message to all matching subscriptions, in FIFO order per
// subscription channel (per-key ordering follows from total FIFO order).
func (b *broker) publish(ctx context.Context, stream, subject string, data []byte, cfg pubsub.PublishConfig) error {
	if b.closed.Load() {
		return ErrEngineClosed
	}

	b.mu.Lock()
	if ts, ok := b.topics[stream]; ok {
		ts.messages++
	}
	b.mu.Unlock()

	b.mu.RLock()
	defer b.mu.RUnlock()

	for pattern, sub := range b.subscriptions {
		if sub.stream != stream || !matchSubject(pattern, subject) {
			continue
		}
		msg := &memoryMessage{
			data:         data,
			subject:      subject,
			key:          cfg.Key,
			headers:      cfg.Headers,
			timestamp:    time.Now(),
			numDelivered: 1,
			stream:       sub.stream,
			consumer:     sub.consumer,
			redeliveryCh: sub.msgCh,
			subCtx:       sub.ctx,
		}
		select {
		case sub.msgCh <- msg:
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.ctx.Done():
			// Subscription cancelled, skip
		}
	}
	return nil
}

// subscribe creates a subscription for the given pattern.
// Returns the message channel and an unsubscribe function.
func (b *broker) subscribe(ctx context.Context, stream, consumer, pattern string, bufSize int) (<-chan pubsub.Message, func(), error) {
	if b.closed.Load() {
		return nil, nil, ErrEngineClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscriptions[pattern] != nil {
		return nil, nil, ErrPatternSubscribed
	}

	subCtx, cancel := context.WithCancel(ctx)
	msgCh := make(chan pubsub.Message, bufSize)

	sub := &subscription{
		pattern:    pattern,
		stream:     stream,
		consumer:   consumer,
		msgCh:      msgCh,
		ctx:        subCtx,
		cancelFunc: cancel,
	}
	b.subscriptions[pattern] = sub

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.subscriptions[pattern] == sub {
			delete(b.subscriptions, pattern)
			cancel()
			close(msgCh)
		}
	}

	return msgCh, unsubscribe, nil
}

// createTopic records a topic. Creation is idempotent; an existing topic's
// config is overwritten (last write wins).
func (b *broker) createTopic(topic string, cfg pubsub.TopicConfig) error {
	if b.closed.Load() {
		return ErrEngineClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if ts, ok := b.topics[topic]; ok {
		ts.cfg = cfg
		return nil
	}
	b.topics[topic] = &topicState{cfg: cfg, created: time.Now()}
	return nil
}

// topicInfo returns admin metadata for a topic.
func (b *broker) topicInfo(topic string) (pubsub.TopicInfo, error) {
	if b.closed.Load() {
		return pubsub.TopicInfo{}, ErrEngineClosed
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	ts, ok := b.topics[topic]
	if !ok {
		return pubsub.TopicInfo{}, ErrTopicNotFound
	}
	return pubsub.TopicInfo{
		Name:       topic,
		Partitions: ts.cfg.Partitions,
		Replicas:   ts.cfg.Replicas,
		Subjects:   []string{topic + ".>"},
		Messages:   ts.messages,
		Created:    ts.created,
	}, nil
}

// close shuts down the broker and all subscriptions.
func (b *broker) close() error {
	if b.closed.Swap(true) {
		return nil // Already closed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subscriptions {
		sub.cancelFunc()
		close(sub.msgCh)
	}
	b.subscriptions = nil
	b.topics = nil
	return nil
}

func (b *broker) isClosed() bool {
	return b.closed.Load()
}
