package notify

import (
	"strings"
	"time"

	"github.com/Godatcode/DevFlow-sub004/internal/events"
)

// RenderTemplate substitutes {{placeholder}} tokens in an action template.
// The well-known placeholders title, message, severity, type and timestamp
// come from the event envelope; any other key present in the event's data
// map is substituted by name. Unknown placeholders are left untouched.
func RenderTemplate(template string, event events.Event) string {
	if template == "" {
		return event.Message()
	}

	replacements := []string{
		"{{title}}", event.Title(),
		"{{message}}", event.Message(),
		"{{severity}}", string(event.Severity()),
		"{{type}}", event.Type,
		"{{timestamp}}", event.Timestamp.Format(time.RFC3339),
	}
	for key, value := range event.Data {
		replacements = append(replacements, "{{"+key+"}}", asString(value))
	}

	return strings.NewReplacer(replacements...).Replace(template)
}
