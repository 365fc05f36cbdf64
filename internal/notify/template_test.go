package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Godatcode/DevFlow-sub004/internal/events"
)

func TestRenderTemplate(t *testing.T) {
	event := events.New("incident.detected", "wf-1", "monitor", map[string]any{
		"title":    "Disk full",
		"message":  "Node db-3 is out of space",
		"severity": "high",
		"host":     "db-3",
		"usage":    float64(97),
	})
	event.Timestamp = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			name:     "well known placeholders",
			template: "[{{severity}}] {{title}}: {{message}} ({{type}})",
			want:     "[high] Disk full: Node db-3 is out of space (incident.detected)",
		},
		{
			name:     "timestamp placeholder",
			template: "at {{timestamp}}",
			want:     "at 2026-03-14T15:00:00Z",
		},
		{
			name:     "data map keys",
			template: "{{host}} is at {{usage}}%",
			want:     "db-3 is at 97%",
		},
		{
			name:     "unknown placeholder untouched",
			template: "{{title}} {{nope}}",
			want:     "Disk full {{nope}}",
		},
		{
			name:     "empty template falls back to message",
			template: "",
			want:     "Node db-3 is out of space",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderTemplate(tt.template, event))
		})
	}
}
