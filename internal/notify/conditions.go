package notify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Godatcode/DevFlow-sub004/internal/events"
)

// matchesCondition evaluates one condition against an event. Unrecognized
// attributes or operators never match.
func matchesCondition(cond Condition, event events.Event) bool {
	switch cond.Attribute {
	case AttrEventType:
		return compareString(event.Type, cond)
	case AttrSeverity:
		return compareSeverity(event.Severity(), cond)
	case AttrProject:
		return compareString(event.Project(), cond)
	case AttrTeam:
		return compareString(event.Team(), cond)
	case AttrUser:
		return compareString(event.User(), cond)
	case AttrTimeOfDay:
		return compareNumber(float64(event.Timestamp.Hour()), cond)
	default:
		return false
	}
}

func compareString(attr string, cond Condition) bool {
	switch cond.Operator {
	case OpEquals:
		return attr == asString(cond.Value)
	case OpContains:
		return strings.Contains(attr, asString(cond.Value))
	case OpIn:
		return containsString(cond.Value, attr)
	case OpNotIn:
		return !containsString(cond.Value, attr)
	default:
		return false
	}
}

// compareSeverity orders comparisons by severity rank so that
// greater_than "medium" matches "high" and "critical".
func compareSeverity(attr events.Severity, cond Condition) bool {
	switch cond.Operator {
	case OpGreaterThan:
		return attr.Rank() > events.Severity(asString(cond.Value)).Rank()
	case OpLessThan:
		other := events.Severity(asString(cond.Value))
		return other.Rank() >= 0 && attr.Rank() < other.Rank()
	default:
		return compareString(string(attr), cond)
	}
}

func compareNumber(attr float64, cond Condition) bool {
	switch cond.Operator {
	case OpEquals:
		v, ok := asNumber(cond.Value)
		return ok && attr == v
	case OpGreaterThan:
		v, ok := asNumber(cond.Value)
		return ok && attr > v
	case OpLessThan:
		v, ok := asNumber(cond.Value)
		return ok && attr < v
	case OpIn:
		return containsNumber(cond.Value, attr)
	case OpNotIn:
		return !containsNumber(cond.Value, attr)
	default:
		return false
	}
}

// asString renders a condition value for string comparison. Numeric values
// survive JSON round-trips as float64, so integers are rendered without a
// decimal point.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// containsString reports membership of needle in an array-valued condition.
// A scalar value is treated as a single-element array.
func containsString(value any, needle string) bool {
	switch arr := value.(type) {
	case []any:
		for _, v := range arr {
			if asString(v) == needle {
				return true
			}
		}
	case []string:
		for _, v := range arr {
			if v == needle {
				return true
			}
		}
	default:
		return asString(value) == needle
	}
	return false
}

func containsNumber(value any, needle float64) bool {
	switch arr := value.(type) {
	case []any:
		for _, v := range arr {
			if n, ok := asNumber(v); ok && n == needle {
				return true
			}
		}
	case []float64:
		for _, v := range arr {
			if v == needle {
				return true
			}
		}
	case []int:
		for _, v := range arr {
			if float64(v) == needle {
				return true
			}
		}
	default:
		n, ok := asNumber(value)
		return ok && n == needle
	}
	return false
}
