package memory

import (
	"context"

	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub"
)

// memoryAdmin implements pubsub.Admin over the engine's broker.
type memoryAdmin struct {
	broker *broker
}

var _ pubsub.Admin = (*memoryAdmin)(nil)

// TopicMetadata fetches metadata for an existing topic.
func (a *memoryAdmin) TopicMetadata(_ context.Context, topic string) (pubsub.TopicInfo, error) {
	return a.broker.topicInfo(topic)
}

// CreateTopic creates a topic with the given configuration.
func (a *memoryAdmin) CreateTopic(_ context.Context, topic string, cfg pubsub.TopicConfig) error {
	if cfg.Partitions <= 0 {
		cfg.Partitions = pubsub.DefaultTopicConfig().Partitions
	}
	if cfg.Replicas <= 0 {
		cfg.Replicas = pubsub.DefaultTopicConfig().Replicas
	}
	return a.broker.createTopic(topic, cfg)
}

// Close releases the session. The in-memory session holds nothing.
func (a *memoryAdmin) Close() error {
	return nil
}
