package notify

import (
	"context"
	"fmt"
	"sync"
)

// Capability interfaces implemented by channel connectors. A connector
// implements only the capabilities its provider supports; dispatch is a
// typed assertion, never runtime probing.

// MessageSender posts a message to a channel-style target.
type MessageSender interface {
	SendMessage(ctx context.Context, target, message string) error
}

// DirectMessageSender delivers a message to a single user.
type DirectMessageSender interface {
	SendDirectMessage(ctx context.Context, user, message string) error
}

// ThreadCreator opens a discussion thread under a target.
type ThreadCreator interface {
	CreateThread(ctx context.Context, target, title, message string) error
}

// ReactionSender attaches a reaction to a target.
type ReactionSender interface {
	AddReaction(ctx context.Context, target, reaction string) error
}

// Connector is a named channel integration. Only active connectors are
// eligible for dispatch.
type Connector interface {
	Provider() string
	Active() bool
}

// ConnectorRegistry holds the channel connectors keyed by provider name.
type ConnectorRegistry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

// NewConnectorRegistry creates an empty registry.
func NewConnectorRegistry() *ConnectorRegistry {
	return &ConnectorRegistry{connectors: make(map[string]Connector)}
}

// Register adds or replaces the connector for its provider.
func (r *ConnectorRegistry) Register(c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[c.Provider()] = c
}

// Unregister removes the connector for a provider. Unknown providers are a
// no-op.
func (r *ConnectorRegistry) Unregister(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.connectors, provider)
}

// Resolve returns the active connector for a provider, or
// ErrProviderNotRegistered when none is registered or the connector is
// inactive.
func (r *ConnectorRegistry) Resolve(provider string) (Connector, error) {
	r.mu.RLock()
	c, ok := r.connectors[provider]
	r.mu.RUnlock()
	if !ok || !c.Active() {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotRegistered, provider)
	}
	return c, nil
}

// Providers returns the names of all registered providers.
func (r *ConnectorRegistry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.connectors))
	for name := range r.connectors {
		out = append(out, name)
	}
	return out
}
