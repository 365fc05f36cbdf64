package service

import (
	"context"
	"log/slog"
)

// Shutdown stops the services in reverse dependency order: listeners first,
// then the bus, then the router's timers, then the stores and the broker
// connection.
func (m *Manager) Shutdown(ctx context.Context) {
	if m.rtServer != nil {
		slog.Info("Stopping realtime server")
		if err := m.rtServer.Stop(ctx); err != nil {
			slog.Error("Error stopping realtime server", "error", err)
		}
	}

	if m.bus != nil {
		slog.Info("Stopping event bus")
		if err := m.bus.Stop(); err != nil {
			slog.Error("Error stopping event bus", "error", err)
		}
	}

	if m.router != nil {
		m.router.Close()
	}

	if m.mongoStore != nil {
		if err := m.mongoStore.Close(ctx); err != nil {
			slog.Error("Error closing delivery store", "error", err)
		}
	}

	if m.metricsServer != nil {
		if err := m.metricsServer.Stop(ctx); err != nil {
			slog.Error("Error stopping metrics server", "error", err)
		}
	}

	if m.provider != nil {
		if err := m.provider.Close(); err != nil {
			slog.Error("Error closing pubsub provider", "error", err)
		}
	}
}
