// Package bus implements the event bus client: ordered, topic-partitioned
// transport between the platform's producers and the event core's consumers.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub"
	"github.com/Godatcode/DevFlow-sub004/internal/events"
)

// Sentinel errors surfaced to callers.
var (
	// ErrNotConnected is returned when publish/subscribe is attempted before
	// a successful Connect.
	ErrNotConnected = errors.New("event bus not connected")
)

// Transport-level header names attached to every published event, so
// consumers can filter without deserializing the payload.
const (
	HeaderEventType = "eventType"
	HeaderSource    = "source"
	HeaderEventID   = "eventId"
)

// Handler processes one decoded domain event. Handlers are invoked in
// registration order; a failing or panicking handler never affects its
// siblings or the consumer loop.
type Handler func(ctx context.Context, evt events.Event) error

// HandlerID identifies a registered handler for later removal.
type HandlerID string

// Config configures the bus client.
type Config struct {
	StreamName    string `yaml:"stream_name"`
	ConsumerGroup string `yaml:"consumer_group"`
	ChannelBuf    int    `yaml:"channel_buffer"`

	// Storage selects the broker stream storage backend.
	Storage pubsub.StorageType `yaml:"-"`
}

// DefaultConfig returns the standard bus configuration.
func DefaultConfig() Config {
	return Config{
		StreamName:    "DEVFLOW_EVENTS",
		ConsumerGroup: "devflow-core",
		ChannelBuf:    100,
	}
}

type registeredHandler struct {
	id HandlerID
	fn Handler
}

// topicSubscription tracks the local fan-out list and the broker-level
// consumer for one topic.
type topicSubscription struct {
	handlers []registeredHandler
	cancel   context.CancelFunc
}

// Client wraps a pubsub.Provider as the platform event bus: it publishes
// ordered-by-workflow events and dispatches consumed messages to registered
// per-topic handlers.
type Client struct {
	provider pubsub.Provider
	cfg      Config
	metrics  Metrics

	connected atomic.Bool
	publisher pubsub.Publisher

	mu     sync.Mutex
	topics map[string]*topicSubscription

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient creates a bus client over the given provider. The provider's
// connection lifetime is owned by the caller; the client owns its own
// producer/consumer sessions.
func NewClient(provider pubsub.Provider, cfg Config, metrics Metrics) *Client {
	if cfg.StreamName == "" {
		cfg.StreamName = DefaultConfig().StreamName
	}
	if cfg.ConsumerGroup == "" {
		cfg.ConsumerGroup = DefaultConfig().ConsumerGroup
	}
	if cfg.ChannelBuf <= 0 {
		cfg.ChannelBuf = DefaultConfig().ChannelBuf
	}
	if metrics == nil {
		metrics = &NoopMetrics{}
	}
	return &Client{
		provider: provider,
		cfg:      cfg,
		metrics:  metrics,
		topics:   make(map[string]*topicSubscription),
	}
}

// Connect establishes the producer session and the consumer-group context.
// Either failure leaves the bus disconnected and fails the whole call.
// Calling Connect on an already-connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected.Load() {
		return nil
	}

	if conn, ok := c.provider.(pubsub.Connectable); ok {
		if err := conn.Connect(ctx); err != nil {
			return fmt.Errorf("bus connect failed: %w", err)
		}
	}

	publisher, err := c.provider.NewPublisher(pubsub.PublisherOptions{
		StreamName:    c.cfg.StreamName,
		SubjectPrefix: c.cfg.StreamName,
		Storage:       c.cfg.Storage,
	})
	if err != nil {
		return fmt.Errorf("bus producer session failed: %w", err)
	}

	c.publisher = publisher
	c.runCtx, c.cancel = context.WithCancel(context.Background())
	c.connected.Store(true)

	slog.Info("Event bus connected", "stream", c.cfg.StreamName, "group", c.cfg.ConsumerGroup)
	return nil
}

// Publish serializes the event to its canonical JSON wire form and publishes
// it with the workflow id as ordering key. Transport failures propagate to
// the caller; retry is the caller's responsibility.
func (c *Client) Publish(ctx context.Context, topic string, evt events.Event) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", evt.ID, err)
	}

	key := evt.WorkflowID
	if key == "" {
		key = "_"
	}

	err = c.publisher.Publish(ctx, topic, data,
		pubsub.WithKey(key),
		pubsub.WithHeaders(pubsub.Header{
			HeaderEventType: evt.Type,
			HeaderSource:    evt.Source,
			HeaderEventID:   evt.ID,
		}),
	)
	if err != nil {
		c.metrics.IncPublishFailure(topic)
		return err
	}

	c.metrics.IncPublished(topic)
	return nil
}

// Subscribe registers a handler for a topic. The broker-level subscription is
// issued only when the topic gains its first handler; later handlers join the
// local fan-out list. Returns the id to use with Unsubscribe.
func (c *Client) Subscribe(topic string, handler Handler) (HandlerID, error) {
	if !c.connected.Load() {
		return "", ErrNotConnected
	}
	if handler == nil {
		return "", errors.New("handler cannot be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := HandlerID(uuid.NewString())

	sub, ok := c.topics[topic]
	if ok {
		sub.handlers = append(sub.handlers, registeredHandler{id: id, fn: handler})
		return id, nil
	}

	consumer, err := c.provider.NewConsumer(pubsub.ConsumerOptions{
		StreamName:     c.cfg.StreamName,
		ConsumerName:   c.cfg.ConsumerGroup + "-" + topic,
		FilterSubject:  c.cfg.StreamName + "." + topic + ".>",
		ChannelBufSize: c.cfg.ChannelBuf,
		Storage:        c.cfg.Storage,
	})
	if err != nil {
		return "", fmt.Errorf("bus consumer session failed for topic %s: %w", topic, err)
	}

	topicCtx, cancel := context.WithCancel(c.runCtx)
	msgCh, err := consumer.Subscribe(topicCtx)
	if err != nil {
		cancel()
		return "", fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	sub = &topicSubscription{
		handlers: []registeredHandler{{id: id, fn: handler}},
		cancel:   cancel,
	}
	c.topics[topic] = sub

	c.wg.Add(1)
	go c.consumeLoop(topicCtx, topic, msgCh)

	slog.Info("Subscribed to bus topic", "topic", topic)
	return id, nil
}

// Unsubscribe removes one handler. Removing an unknown pairing is a no-op.
// When a topic's handler list becomes empty the topic's broker consumer is
// stopped and the topic removed.
func (c *Client) Unsubscribe(topic string, id HandlerID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub, ok := c.topics[topic]
	if !ok {
		return
	}

	for i, h := range sub.handlers {
		if h.id == id {
			sub.handlers = append(sub.handlers[:i], sub.handlers[i+1:]...)
			break
		}
	}

	if len(sub.handlers) == 0 {
		sub.cancel()
		delete(c.topics, topic)
		slog.Info("Unsubscribed from bus topic", "topic", topic)
	}
}

// consumeLoop dispatches messages for one topic, in order, until the topic
// context is cancelled.
func (c *Client) consumeLoop(ctx context.Context, topic string, msgCh <-chan pubsub.Message) {
	defer c.wg.Done()

	for msg := range msgCh {
		c.dispatch(ctx, topic, msg)
	}
}

// dispatch decodes one message and invokes every registered handler for the
// topic. Empty payloads are dropped with a warning, undecodable payloads with
// an error; neither reaches a handler or stops the loop.
func (c *Client) dispatch(ctx context.Context, topic string, msg pubsub.Message) {
	if len(msg.Data()) == 0 {
		slog.Warn("Dropping bus message with empty payload", "topic", topic, "subject", msg.Subject())
		c.metrics.IncDropped(topic, "empty")
		msg.Ack()
		return
	}

	var evt events.Event
	if err := json.Unmarshal(msg.Data(), &evt); err != nil {
		slog.Error("Dropping undecodable bus message", "topic", topic, "subject", msg.Subject(), "error", err)
		c.metrics.IncDropped(topic, "malformed")
		msg.Term()
		return
	}

	c.mu.Lock()
	var handlers []registeredHandler
	if sub, ok := c.topics[topic]; ok {
		handlers = append(handlers, sub.handlers...)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		c.invoke(ctx, topic, h, evt)
	}

	c.metrics.IncConsumed(topic)
	msg.Ack()
}

// invoke runs a single handler, isolating panics and errors from siblings.
func (c *Client) invoke(ctx context.Context, topic string, h registeredHandler, evt events.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Bus handler panicked", "topic", topic, "event_id", evt.ID, "panic", r)
			c.metrics.IncHandlerFailure(topic)
		}
	}()

	if err := h.fn(ctx, evt); err != nil {
		slog.Error("Bus handler failed", "topic", topic, "event_id", evt.ID, "error", err)
		c.metrics.IncHandlerFailure(topic)
	}
}

// TopicMetadata fetches topic metadata over a scoped admin session. The
// session is always closed, including on error.
func (c *Client) TopicMetadata(ctx context.Context, topic string) (pubsub.TopicInfo, error) {
	adm, err := c.provider.NewAdmin()
	if err != nil {
		return pubsub.TopicInfo{}, fmt.Errorf("failed to open admin session: %w", err)
	}
	defer adm.Close()

	return adm.TopicMetadata(ctx, topic)
}

// CreateTopic creates a topic over a scoped admin session. Zero partition or
// replica counts fall back to the defaults (3 and 1).
func (c *Client) CreateTopic(ctx context.Context, topic string, partitions, replicas int) error {
	adm, err := c.provider.NewAdmin()
	if err != nil {
		return fmt.Errorf("failed to open admin session: %w", err)
	}
	defer adm.Close()

	return adm.CreateTopic(ctx, topic, pubsub.TopicConfig{Partitions: partitions, Replicas: replicas})
}

// Connected reports whether Connect succeeded.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Stop disconnects the producer and all topic consumers, waiting for the
// consumer loops to drain. A failing producer close propagates to the caller.
func (c *Client) Stop() error {
	c.mu.Lock()
	if !c.connected.Swap(false) {
		c.mu.Unlock()
		return nil
	}
	for topic, sub := range c.topics {
		sub.cancel()
		delete(c.topics, topic)
	}
	cancel := c.cancel
	publisher := c.publisher
	c.publisher = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			return fmt.Errorf("failed to close producer session: %w", err)
		}
	}

	slog.Info("Event bus stopped", "stream", c.cfg.StreamName)
	return nil
}
