// Package events defines the canonical domain event schema for the DevFlow
// event distribution core. All producers and consumers MUST use these types.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Well-known event types published on the bus.
const (
	TypeWorkflowStarted       = "workflow.started"
	TypeWorkflowCompleted     = "workflow.completed"
	TypeWorkflowFailed        = "workflow.failed"
	TypeWorkflowStepCompleted = "workflow.step.completed"
	TypeAgentExecStarted      = "agent.execution.started"
	TypeAgentExecCompleted    = "agent.execution.completed"
	TypeAgentExecFailed       = "agent.execution.failed"
	TypeIncidentDetected      = "incident.detected"
	TypeDeploymentFinished    = "deployment.finished"
)

// Severity represents the severity attached to an event's data map.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordering rank of the severity, or -1 for unknown values.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// Event is the immutable domain event carried on the bus. WorkflowID doubles
// as the partition/ordering key, so all events of one workflow stay in order.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	WorkflowID string         `json:"workflowId"`
	Data       map[string]any `json:"data"`
	Timestamp  time.Time      `json:"timestamp"`
	Source     string         `json:"source"`
}

// New creates an Event with a fresh id and the current timestamp.
func New(eventType, workflowID, source string, data map[string]any) Event {
	if data == nil {
		data = map[string]any{}
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		WorkflowID: workflowID,
		Data:       data,
		Timestamp:  time.Now().UTC(),
		Source:     source,
	}
}

// str reads a string value out of the data map, "" when absent or not a string.
func (e Event) str(key string) string {
	v, _ := e.Data[key].(string)
	return v
}

// Severity returns the severity recorded in the event data, SeverityLow when absent.
func (e Event) Severity() Severity {
	if s := Severity(e.str("severity")); s.Rank() >= 0 {
		return s
	}
	return SeverityLow
}

// Project returns the project attribute of the event, if any.
func (e Event) Project() string { return e.str("project") }

// Team returns the team attribute of the event, if any.
func (e Event) Team() string { return e.str("team") }

// User returns the user attribute of the event, if any.
func (e Event) User() string { return e.str("user") }

// Title returns the human-readable title of the event, if any.
func (e Event) Title() string { return e.str("title") }

// Message returns the human-readable message of the event, if any.
func (e Event) Message() string { return e.str("message") }

// CloneData returns a shallow copy of the event's data map. Events are
// immutable once published; derived events must not alias the original map.
func (e Event) CloneData() map[string]any {
	out := make(map[string]any, len(e.Data))
	for k, v := range e.Data {
		out[k] = v
	}
	return out
}
