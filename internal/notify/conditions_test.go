package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Godatcode/DevFlow-sub004/internal/events"
)

func incidentEvent(severity string) events.Event {
	e := events.New(events.TypeIncidentDetected, "wf-1", "monitor", map[string]any{
		"severity": severity,
		"project":  "billing",
		"team":     "payments",
		"user":     "alice",
	})
	e.Timestamp = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	return e
}

func TestMatchesCondition(t *testing.T) {
	event := incidentEvent("high")

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{
			name: "event type equals",
			cond: Condition{Attribute: AttrEventType, Operator: OpEquals, Value: "incident.detected"},
			want: true,
		},
		{
			name: "event type contains",
			cond: Condition{Attribute: AttrEventType, Operator: OpContains, Value: "incident"},
			want: true,
		},
		{
			name: "severity in array",
			cond: Condition{Attribute: AttrSeverity, Operator: OpIn, Value: []any{"high", "critical"}},
			want: true,
		},
		{
			name: "severity not in array",
			cond: Condition{Attribute: AttrSeverity, Operator: OpNotIn, Value: []any{"low", "medium"}},
			want: true,
		},
		{
			name: "severity greater than by rank",
			cond: Condition{Attribute: AttrSeverity, Operator: OpGreaterThan, Value: "medium"},
			want: true,
		},
		{
			name: "severity less than critical",
			cond: Condition{Attribute: AttrSeverity, Operator: OpLessThan, Value: "critical"},
			want: true,
		},
		{
			name: "severity not greater than high",
			cond: Condition{Attribute: AttrSeverity, Operator: OpGreaterThan, Value: "high"},
			want: false,
		},
		{
			name: "project equals",
			cond: Condition{Attribute: AttrProject, Operator: OpEquals, Value: "billing"},
			want: true,
		},
		{
			name: "team mismatch",
			cond: Condition{Attribute: AttrTeam, Operator: OpEquals, Value: "infra"},
			want: false,
		},
		{
			name: "user in string slice",
			cond: Condition{Attribute: AttrUser, Operator: OpIn, Value: []string{"alice", "bob"}},
			want: true,
		},
		{
			name: "hour of day greater than",
			cond: Condition{Attribute: AttrTimeOfDay, Operator: OpGreaterThan, Value: 9},
			want: true,
		},
		{
			name: "hour of day less than",
			cond: Condition{Attribute: AttrTimeOfDay, Operator: OpLessThan, Value: 12},
			want: false,
		},
		{
			name: "hour of day equals float from json",
			cond: Condition{Attribute: AttrTimeOfDay, Operator: OpEquals, Value: float64(15)},
			want: true,
		},
		{
			name: "unknown attribute never matches",
			cond: Condition{Attribute: "region", Operator: OpEquals, Value: "eu"},
			want: false,
		},
		{
			name: "unknown operator never matches",
			cond: Condition{Attribute: AttrEventType, Operator: "matches_regex", Value: ".*"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesCondition(tt.cond, event))
		})
	}
}

func TestMatchesCondition_MissingAttributes(t *testing.T) {
	bare := events.New("workflow.started", "wf-1", "engine", nil)

	// Severity defaults to low when absent.
	assert.True(t, matchesCondition(Condition{Attribute: AttrSeverity, Operator: OpEquals, Value: "low"}, bare))
	assert.False(t, matchesCondition(Condition{Attribute: AttrProject, Operator: OpEquals, Value: "billing"}, bare))
}
