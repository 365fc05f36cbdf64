package nats

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub"
)

// partitionsMetaKey records the logical partition count on the stream, since
// JetStream streams are not natively partitioned.
const partitionsMetaKey = "devflow.partitions"

// admin implements pubsub.Admin over a dedicated NATS connection.
type admin struct {
	nc natsConnection
	js JetStream
}

var _ pubsub.Admin = (*admin)(nil)

// TopicMetadata fetches metadata for an existing topic.
func (a *admin) TopicMetadata(ctx context.Context, topic string) (pubsub.TopicInfo, error) {
	if a.js == nil {
		return pubsub.TopicInfo{}, fmt.Errorf("admin session not connected")
	}

	stream, err := a.js.Stream(ctx, topic)
	if err != nil {
		return pubsub.TopicInfo{}, fmt.Errorf("failed to look up topic %s: %w", topic, err)
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return pubsub.TopicInfo{}, fmt.Errorf("failed to fetch info for topic %s: %w", topic, err)
	}

	partitions, _ := strconv.Atoi(info.Config.Metadata[partitionsMetaKey])

	return pubsub.TopicInfo{
		Name:       info.Config.Name,
		Partitions: partitions,
		Replicas:   info.Config.Replicas,
		Subjects:   info.Config.Subjects,
		Messages:   info.State.Msgs,
		Created:    info.Created,
	}, nil
}

// CreateTopic creates a topic with the given configuration.
func (a *admin) CreateTopic(ctx context.Context, topic string, cfg pubsub.TopicConfig) error {
	if a.js == nil {
		return fmt.Errorf("admin session not connected")
	}
	if cfg.Partitions <= 0 {
		cfg.Partitions = pubsub.DefaultTopicConfig().Partitions
	}
	if cfg.Replicas <= 0 {
		cfg.Replicas = pubsub.DefaultTopicConfig().Replicas
	}

	_, err := a.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     topic,
		Subjects: []string{topic + ".>"},
		Replicas: cfg.Replicas,
		Metadata: map[string]string{
			partitionsMetaKey: strconv.Itoa(cfg.Partitions),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create topic %s: %w", topic, err)
	}
	return nil
}

// Close releases the admin session's connection.
func (a *admin) Close() error {
	if a.nc != nil {
		a.nc.Close()
		a.nc = nil
		a.js = nil
	}
	return nil
}
