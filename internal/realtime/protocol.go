package realtime

import "time"

// Message types exchanged over a realtime connection.
const (
	// Client -> server control plane.
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"

	// Server -> client acknowledgments.
	TypeConnectionEstablished   = "connection_established"
	TypeSubscriptionConfirmed   = "subscription_confirmed"
	TypeUnsubscriptionConfirmed = "unsubscription_confirmed"

	// Server -> client broadcasts.
	TypeWorkflowStatusUpdate   = "workflow_status_update"
	TypeWorkflowProgressUpdate = "workflow_progress_update"
	TypeWorkflowError          = "workflow_error"
)

// Message is the flat wire envelope for all realtime frames. Only the fields
// relevant to a given Type are populated.
type Message struct {
	Type       string         `json:"type"`
	ClientID   string         `json:"clientId,omitempty"`
	WorkflowID string         `json:"workflowId,omitempty"`
	Status     string         `json:"status,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	StepID     string         `json:"stepId,omitempty"`
	Progress   float64        `json:"progress,omitempty"`
	Text       string         `json:"message,omitempty"`
	Error      string         `json:"error,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// ConnectParams are the query parameters required to establish a connection.
type ConnectParams struct {
	UserID string `schema:"userId,required"`
	TeamID string `schema:"teamId,required"`
}
