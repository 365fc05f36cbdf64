// Package notify implements the rule-driven notification router: condition
// matching against domain events, prioritized multi-channel action dispatch,
// bounded retry with exponential backoff, and escalation re-entry.
package notify

import (
	"errors"
	"time"
)

// Sentinel errors surfaced by the router and its stores.
var (
	ErrProviderNotRegistered = errors.New("notify: provider not registered")
	ErrUnsupportedAction     = errors.New("notify: unsupported action type")
	ErrRuleNotFound          = errors.New("notify: rule not found")
	ErrDeliveryNotFound      = errors.New("notify: delivery not found")
)

// Condition attributes extracted from an event.
const (
	AttrEventType = "event_type"
	AttrSeverity  = "severity"
	AttrProject   = "project"
	AttrTeam      = "team"
	AttrTimeOfDay = "time_of_day"
	AttrUser      = "user"
)

// Condition operators.
const (
	OpEquals      = "equals"
	OpContains    = "contains"
	OpIn          = "in"
	OpNotIn       = "not_in"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
)

// Action types.
const (
	ActionSendMessage  = "send_message"
	ActionSendDM       = "send_dm"
	ActionCreateThread = "create_thread"
	ActionAddReaction  = "add_reaction"
	ActionEscalate     = "escalate"
)

// Delivery lifecycle states.
const (
	StatusPending  = "pending"
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusRetrying = "retrying"
)

// Condition compares one extracted event attribute against a literal or
// array value. An unrecognized attribute or operator never matches.
type Condition struct {
	Attribute string `json:"attribute" yaml:"attribute"`
	Operator  string `json:"operator" yaml:"operator"`
	Value     any    `json:"value" yaml:"value"`
}

// Action describes one channel dispatch executed when a rule matches.
// Delay postpones the dispatch; zero means inline.
type Action struct {
	Type     string        `json:"type" yaml:"type"`
	Provider string        `json:"provider" yaml:"provider"`
	Target   string        `json:"target" yaml:"target"`
	Template string        `json:"template" yaml:"template"`
	Delay    time.Duration `json:"delay,omitempty" yaml:"delay,omitempty"`
}

// Rule binds a condition list to an action list. Conditions are ANDed: the
// rule matches only when every condition matches. Expression is an optional
// CEL predicate over the event, ANDed with the condition list when set.
type Rule struct {
	ID         string      `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
	Expression string      `json:"expression,omitempty" yaml:"expression,omitempty"`
	Actions    []Action    `json:"actions" yaml:"actions"`
	Priority   int         `json:"priority" yaml:"priority"`
	IsActive   bool        `json:"isActive" yaml:"isActive"`
}

// Delivery records one attempted execution of one action for one matched
// rule against one event.
type Delivery struct {
	ID          string     `json:"id" bson:"_id"`
	EventID     string     `json:"eventId" bson:"eventId"`
	RuleID      string     `json:"ruleId" bson:"ruleId"`
	Provider    string     `json:"provider" bson:"provider"`
	Target      string     `json:"target" bson:"target"`
	Status      string     `json:"status" bson:"status"`
	Attempts    int        `json:"attempts" bson:"attempts"`
	LastAttempt time.Time  `json:"lastAttempt" bson:"lastAttempt"`
	Error       string     `json:"error,omitempty" bson:"error,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
}

// DeliveryStats aggregates delivery counts by status.
type DeliveryStats struct {
	Total    int `json:"total"`
	Sent     int `json:"sent"`
	Failed   int `json:"failed"`
	Pending  int `json:"pending"`
	Retrying int `json:"retrying"`
}

// DeliveryFilter narrows delivery history queries. Zero-value fields are
// ignored.
type DeliveryFilter struct {
	EventID string
	RuleID  string
}
