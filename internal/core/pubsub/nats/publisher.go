package nats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub"
)

// keyHeader carries the ordering key so consumers can recover it without
// parsing the subject.
const keyHeader = "Devflow-Msg-Key"

// keyToken replaces characters that are illegal in NATS subject tokens.
var keyToken = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")

// jetStreamPublisher implements pubsub.Publisher using NATS JetStream.
type jetStreamPublisher struct {
	js   JetStream
	opts pubsub.PublisherOptions
}

// NewPublisher creates a new Publisher backed by NATS JetStream.
func NewPublisher(js JetStream, opts pubsub.PublisherOptions) (pubsub.Publisher, error) {
	if js == nil {
		return nil, fmt.Errorf("jetstream cannot be nil")
	}

	// Ensure stream exists
	if opts.StreamName != "" {
		subjects := []string{opts.StreamName + ".>"}
		if opts.SubjectPrefix != "" && opts.SubjectPrefix != opts.StreamName {
			subjects = []string{opts.SubjectPrefix + ".>"}
		}

		storage := jetstream.MemoryStorage
		if opts.Storage == pubsub.FileStorage {
			storage = jetstream.FileStorage
		}

		_, err := js.CreateOrUpdateStream(context.Background(), jetstream.StreamConfig{
			Name:     opts.StreamName,
			Subjects: subjects,
			Storage:  storage,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to ensure stream: %w", err)
		}
	}

	return &jetStreamPublisher{js: js, opts: opts}, nil
}

// Publish sends a message to the specified subject. The ordering key, when
// present, becomes the terminal subject token: JetStream then preserves the
// relative order of all messages sharing that token.
func (p *jetStreamPublisher) Publish(ctx context.Context, subject string, data []byte, opts ...pubsub.PublishOpt) error {
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
		fullSubject = fullSubject + "." + keyToken.Replace(cfg.Key)
	}

	msg := &nats.Msg{
		Subject: fullSubject,
		Data:    data,
		Header:  nats.Header{},
	}
	for k, v := range cfg.Headers {
		msg.Header.Set(k, v)
	}
	if cfg.Key != "" {
		msg.Header.Set(keyHeader, cfg.Key)
	}

	_, err := p.js.PublishMsg(ctx, msg)

	if p.opts.OnPublish != nil {
		p.opts.OnPublish(fullSubject, err, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", fullSubject, err)
	}

	return nil
}

// Close releases resources.
func (p *jetStreamPublisher) Close() error {
	// JetStream doesn't need explicit close
	return nil
}
