// Package service wires the event distribution core together: the pubsub
// provider, the bus client, the realtime broadcast server, and the
// notification router.
package service

import (
	"github.com/Godatcode/DevFlow-sub004/internal/bus"
	"github.com/Godatcode/DevFlow-sub004/internal/config"
	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub"
	"github.com/Godatcode/DevFlow-sub004/internal/metrics"
	"github.com/Godatcode/DevFlow-sub004/internal/notify"
	notifymongo "github.com/Godatcode/DevFlow-sub004/internal/notify/mongo"
	"github.com/Godatcode/DevFlow-sub004/internal/realtime"
)

// Well-known bus topics consumed by the core.
const (
	TopicWorkflowEvents = "workflow.events"
	TopicAgentEvents    = "agent.events"
)

// Options selects which services the manager runs.
type Options struct {
	RunRealtime bool
	RunNotifier bool
}

// Manager owns the lifecycle of the core components. Init builds and
// connects them, Start begins serving, Shutdown tears everything down in
// reverse order.
type Manager struct {
	cfg  *config.Config
	opts Options

	provider      pubsub.Provider
	bus           *bus.Client
	rtServer      *realtime.Server
	router        *notify.Router
	mongoStore    *notifymongo.DeliveryStore
	metricsServer *metrics.Server
}

// NewManager creates an unstarted manager.
func NewManager(cfg *config.Config, opts Options) *Manager {
	return &Manager{cfg: cfg, opts: opts}
}

// Bus exposes the event bus client for producers.
func (m *Manager) Bus() *bus.Client {
	return m.bus
}

// Realtime exposes the broadcast server.
func (m *Manager) Realtime() *realtime.Server {
	return m.rtServer
}

// Router exposes the notification router for rule management and connector
// registration.
func (m *Manager) Router() *notify.Router {
	return m.router
}
