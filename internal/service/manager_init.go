package service

import (
	"context"
	"fmt"

	"github.com/Godatcode/DevFlow-sub004/internal/bus"
	"github.com/Godatcode/DevFlow-sub004/internal/config"
	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub/memory"
	"github.com/Godatcode/DevFlow-sub004/internal/core/pubsub/nats"
	"github.com/Godatcode/DevFlow-sub004/internal/metrics"
	"github.com/Godatcode/DevFlow-sub004/internal/notify"
	notifymongo "github.com/Godatcode/DevFlow-sub004/internal/notify/mongo"
	"github.com/Godatcode/DevFlow-sub004/internal/realtime"
)

// Init builds the pubsub provider, connects the bus, and constructs the
// selected services. It does not start listeners; Start does.
func (m *Manager) Init(ctx context.Context) error {
	if err := m.initBus(ctx); err != nil {
		return err
	}

	coreTopics := []string{TopicWorkflowEvents, TopicAgentEvents}

	if m.opts.RunRealtime {
		m.rtServer = realtime.NewServer(m.cfg.Realtime)
		for _, topic := range coreTopics {
			if _, err := m.bus.Subscribe(topic, m.forwardToRealtime); err != nil {
				return fmt.Errorf("realtime bus subscription: %w", err)
			}
		}
	}

	if m.opts.RunNotifier {
		if err := m.initNotifier(ctx); err != nil {
			return err
		}
		for _, topic := range coreTopics {
			if _, err := m.bus.Subscribe(topic, m.routeNotifications); err != nil {
				return fmt.Errorf("notifier bus subscription: %w", err)
			}
		}
	}

	if m.cfg.Metrics.Enabled {
		m.metricsServer = metrics.NewServer(m.cfg.Metrics.Addr)
	}

	return nil
}

func (m *Manager) initBus(ctx context.Context) error {
	var busMetrics bus.Metrics
	if m.cfg.Metrics.Enabled {
		busMetrics = metrics.BusMetrics{}
	}

	switch m.cfg.Bus.Engine {
	case config.EngineMemory:
		m.provider = memory.New()
	case config.EngineNATS:
		provider, err := nats.NewProvider(m.cfg.Bus.URL)
		if err != nil {
			return fmt.Errorf("nats provider: %w", err)
		}
		m.provider = provider
	default:
		return fmt.Errorf("unknown bus engine %q", m.cfg.Bus.Engine)
	}

	m.bus = bus.NewClient(m.provider, m.cfg.BusClientConfig(), busMetrics)
	if err := m.bus.Connect(ctx); err != nil {
		return err
	}
	return nil
}

func (m *Manager) initNotifier(ctx context.Context) error {
	var store notify.DeliveryStore
	if m.cfg.Notify.MongoURI != "" {
		mongoStore, err := notifymongo.NewDeliveryStore(ctx, m.cfg.Notify.MongoURI, m.cfg.Notify.MongoDatabase, "")
		if err != nil {
			return fmt.Errorf("mongo delivery store: %w", err)
		}
		m.mongoStore = mongoStore
		store = mongoStore
	} else {
		store = notify.NewMemoryDeliveryStore()
	}

	var notifyMetrics notify.Metrics
	if m.cfg.Metrics.Enabled {
		notifyMetrics = metrics.NotifyMetrics{}
	}

	router, err := notify.NewRouter(m.cfg.Notify.Router, notify.NewRuleStore(), store, notify.NewConnectorRegistry(), notifyMetrics)
	if err != nil {
		return err
	}
	m.router = router
	return nil
}
