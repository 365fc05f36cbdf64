package service

import (
	"context"

	"github.com/Godatcode/DevFlow-sub004/internal/events"
)

// forwardToRealtime pushes workflow lifecycle events to live subscribers of
// the event's workflow. Events without a workflow id have no subscribers by
// definition and are skipped.
func (m *Manager) forwardToRealtime(_ context.Context, evt events.Event) error {
	if evt.WorkflowID == "" {
		return nil
	}

	hub := m.rtServer.Hub()
	switch evt.Type {
	case events.TypeWorkflowFailed, events.TypeAgentExecFailed:
		hub.BroadcastError(evt.WorkflowID, evt.Message())
	case events.TypeWorkflowStepCompleted:
		progress, _ := evt.Data["progress"].(float64)
		stepID, _ := evt.Data["stepId"].(string)
		hub.BroadcastProgressUpdate(evt.WorkflowID, stepID, progress, evt.Message())
	default:
		hub.BroadcastStatusUpdate(evt.WorkflowID, statusFor(evt.Type), evt.Data)
	}
	return nil
}

// statusFor maps an event type to the status string shown to subscribers.
func statusFor(eventType string) string {
	switch eventType {
	case events.TypeWorkflowStarted, events.TypeAgentExecStarted:
		return "running"
	case events.TypeWorkflowCompleted, events.TypeAgentExecCompleted:
		return "completed"
	default:
		return eventType
	}
}

// routeNotifications feeds every consumed event through the notification
// router. Router errors are returned so the bus records a handler failure;
// delivery failures stay internal to the router's retry lifecycle.
func (m *Manager) routeNotifications(ctx context.Context, evt events.Event) error {
	return m.router.ProcessEvent(ctx, evt)
}
