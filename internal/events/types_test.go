package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	evt := New(TypeWorkflowStarted, "wf-1", "workflow-engine", map[string]any{"severity": "high"})

	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, TypeWorkflowStarted, evt.Type)
	assert.Equal(t, "wf-1", evt.WorkflowID)
	assert.Equal(t, "workflow-engine", evt.Source)
	assert.False(t, evt.Timestamp.IsZero())
}

func TestNew_NilData(t *testing.T) {
	evt := New(TypeWorkflowCompleted, "wf-2", "test", nil)
	assert.NotNil(t, evt.Data)
}

func TestEvent_JSONRoundtrip(t *testing.T) {
	evt := New(TypeIncidentDetected, "wf-3", "monitor", map[string]any{
		"severity": "critical",
		"title":    "API down",
	})

	raw, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, evt.ID, decoded.ID)
	assert.Equal(t, evt.WorkflowID, decoded.WorkflowID)
	assert.Equal(t, "API down", decoded.Title())
}

func TestEvent_Accessors(t *testing.T) {
	evt := New(TypeIncidentDetected, "wf-4", "monitor", map[string]any{
		"severity": "high",
		"project":  "payments",
		"team":     "platform",
		"user":     "u-17",
		"title":    "Latency spike",
		"message":  "p99 above threshold",
	})

	assert.Equal(t, SeverityHigh, evt.Severity())
	assert.Equal(t, "payments", evt.Project())
	assert.Equal(t, "platform", evt.Team())
	assert.Equal(t, "u-17", evt.User())
	assert.Equal(t, "Latency spike", evt.Title())
	assert.Equal(t, "p99 above threshold", evt.Message())
}

func TestEvent_SeverityDefaults(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want Severity
	}{
		{"missing", nil, SeverityLow},
		{"unknown value", map[string]any{"severity": "weird"}, SeverityLow},
		{"non-string", map[string]any{"severity": 3}, SeverityLow},
		{"critical", map[string]any{"severity": "critical"}, SeverityCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := New(TypeWorkflowFailed, "wf", "t", tt.data)
			assert.Equal(t, tt.want, evt.Severity())
		})
	}
}

func TestSeverity_AtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityLow.AtLeast(SeverityMedium))
	assert.False(t, Severity("bogus").AtLeast(SeverityLow))
}

func TestEvent_CloneData(t *testing.T) {
	evt := New(TypeWorkflowStarted, "wf-5", "t", map[string]any{"k": "v"})
	clone := evt.CloneData()
	clone["k"] = "changed"
	assert.Equal(t, "v", evt.Data["k"])
}
