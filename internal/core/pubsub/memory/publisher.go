package memory

import (
	"context"
	"time"

	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub"
)

// memoryPublisher implements pubsub.Publisher for the in-memory engine.
type memoryPublisher struct {
	broker *broker
	opts   pubsub.PublisherOptions
}

var _ pubsub.Publisher = (*memoryPublisher)(nil)

// Publish sends a message to all matching subscriptions.
func (p *memoryPublisher) Publish(ctx context.Context, subject string, data []byte, opts ...pubsub.PublishOpt) error {
	start := time.Now()

	var cfg pubsub.PublishConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	fullSubject := subject
	if p.opts.SubjectPrefix != "" {
		fullSubject = p.opts.SubjectPrefix + "." + subject
	}
	if cfg.Key != "" {
		fullSubject = fullSubject + "." + cfg.Key
	}

	err := p.broker.publish(ctx, p.opts.StreamName, fullSubject, data, cfg)

	if p.opts.OnPublish != nil {
		p.opts.OnPublish(fullSubject, err, time.Since(start))
	}

	return err
}

// Close releases resources.
func (p *memoryPublisher) Close() error {
	return nil
}
