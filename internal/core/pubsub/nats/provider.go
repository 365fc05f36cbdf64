package nats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub"
)

// natsConnection abstracts the nats.Conn for testing purposes.
type natsConnection interface {
	Close()
}

// natsConnectFunc is a function type for connecting to NATS (injectable for testing).
type natsConnectFunc func(url string) (natsConnection, error)

// defaultNatsConnect is the default implementation that uses nats.Connect.
var defaultNatsConnect natsConnectFunc = func(url string) (natsConnection, error) {
	return nats.Connect(url)
}

// Provider implements pubsub.Provider using NATS JetStream. It manages the
// NATS connection lifecycle and provides factory methods for creating
// publishers, consumers and admin sessions.
type Provider struct {
	url         string
	nc          natsConnection
	js          JetStream
	natsConnect natsConnectFunc // injectable for testing
}

// Compile-time check that Provider implements pubsub.Provider.
var _ pubsub.Provider = (*Provider)(nil)
var _ pubsub.Connectable = (*Provider)(nil)

// NewProvider creates a new NATS-based pubsub provider. Connect must be
// called before the provider can hand out publishers or consumers.
func NewProvider(url string) (*Provider, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	return &Provider{
		url:         url,
		natsConnect: defaultNatsConnect,
	}, nil
}

// Connect establishes the NATS connection and initializes JetStream.
func (p *Provider) Connect(ctx context.Context) error {
	connectFn := p.natsConnect
	if connectFn == nil {
		connectFn = defaultNatsConnect
	}

	nc, err := connectFn(p.url)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", p.url, err)
	}
	p.nc = nc

	natsConn, ok := nc.(*nats.Conn)
	if !ok {
		// Mock connection in tests; the test sets js directly.
		slog.Info("Connected to NATS (mock)", "url", p.url)
		return nil
	}

	js, err := NewJetStream(natsConn)
	if err != nil {
		nc.Close()
		p.nc = nil
		return fmt.Errorf("failed to create JetStream: %w", err)
	}
	p.js = js

	slog.Info("Connected to NATS", "url", p.url)
	return nil
}

// NewPublisher creates a new Publisher backed by NATS JetStream.
func (p *Provider) NewPublisher(opts pubsub.PublisherOptions) (pubsub.Publisher, error) {
	if p.js == nil {
		return nil, fmt.Errorf("NATS not connected, call Connect first")
	}
	return NewPublisher(p.js, opts)
}

// NewConsumer creates a new Consumer backed by NATS JetStream.
func (p *Provider) NewConsumer(opts pubsub.ConsumerOptions) (pubsub.Consumer, error) {
	if p.js == nil {
		return nil, fmt.Errorf("NATS not connected, call Connect first")
	}
	return NewConsumer(p.js, opts)
}

// NewAdmin opens a dedicated admin session on a fresh connection, so closing
// the session never disturbs the long-lived producer/consumer connection.
func (p *Provider) NewAdmin() (pubsub.Admin, error) {
	connectFn := p.natsConnect
	if connectFn == nil {
		connectFn = defaultNatsConnect
	}

	nc, err := connectFn(p.url)
	if err != nil {
		return nil, fmt.Errorf("failed to open admin connection to %s: %w", p.url, err)
	}

	natsConn, ok := nc.(*nats.Conn)
	if !ok {
		return &admin{nc: nc}, nil
	}

	js, err := NewJetStream(natsConn)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create admin JetStream: %w", err)
	}

	return &admin{nc: nc, js: js}, nil
}

// Close closes the NATS connection.
func (p *Provider) Close() error {
	if p.nc != nil {
		slog.Info("Closing NATS connection...")
		p.nc.Close()
		p.nc = nil
		p.js = nil
	}
	return nil
}
