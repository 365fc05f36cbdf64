package service

import (
	"context"
	"time"

	"github.com/Godatcode/DevFlow-sub004/internal/metrics"
)

// Start launches the listeners of every initialized service. It returns once
// they are accepting; background work runs until Shutdown.
func (m *Manager) Start(ctx context.Context) error {
	if m.rtServer != nil {
		if err := m.rtServer.Start(ctx); err != nil {
			return err
		}
	}

	if m.metricsServer != nil {
		if err := m.metricsServer.Start(); err != nil {
			return err
		}
		if m.rtServer != nil {
			go m.trackClientCount(ctx)
		}
	}

	return nil
}

// trackClientCount mirrors the hub's client table size into the connected
// clients gauge until ctx is cancelled.
func (m *Manager) trackClientCount(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.ConnectedClients.Set(float64(m.rtServer.Hub().ClientCount()))
		}
	}
}
