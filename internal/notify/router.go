package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Godatcode/DevFlow-sub004/internal/events"
)

// Config tunes the router's retry and escalation behavior.
type Config struct {
	// MaxAttempts caps delivery attempts per action, backoff included.
	MaxAttempts int `yaml:"max_attempts"`

	// BackoffBase is the unit of the exponential backoff; attempt n waits
	// BackoffBase * 2^n before retrying.
	BackoffBase time.Duration `yaml:"backoff_base"`

	// MaxEscalationDepth bounds recursive escalation re-entry. An escalation
	// chain longer than this is dropped with a warning.
	MaxEscalationDepth int `yaml:"max_escalation_depth"`
}

// DefaultConfig returns the standard router configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:        3,
		BackoffBase:        time.Second,
		MaxEscalationDepth: 3,
	}
}

// Router matches inbound events against the rule table and executes
// prioritized, retrying, multi-channel actions.
type Router struct {
	cfg        Config
	rules      *RuleStore
	deliveries DeliveryStore
	connectors *ConnectorRegistry
	scheduler  *Scheduler
	evaluator  *ExpressionEvaluator
	metrics    Metrics

	// runCtx outlives individual ProcessEvent calls; scheduled retries and
	// delayed actions run against it so Close can stop them.
	runCtx    context.Context
	cancelRun context.CancelFunc
}

// NewRouter creates a router over the given stores and connector registry.
// A nil metrics falls back to NoopMetrics.
func NewRouter(cfg Config, rules *RuleStore, deliveries DeliveryStore, connectors *ConnectorRegistry, metrics Metrics) (*Router, error) {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = def.BackoffBase
	}
	if cfg.MaxEscalationDepth <= 0 {
		cfg.MaxEscalationDepth = def.MaxEscalationDepth
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	evaluator, err := NewExpressionEvaluator()
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	return &Router{
		cfg:        cfg,
		rules:      rules,
		deliveries: deliveries,
		connectors: connectors,
		scheduler:  NewScheduler(),
		evaluator:  evaluator,
		metrics:    metrics,
		runCtx:     runCtx,
		cancelRun:  cancel,
	}, nil
}

// Rules exposes the rule store for the management surface.
func (r *Router) Rules() *RuleStore {
	return r.rules
}

// Connectors exposes the connector registry.
func (r *Router) Connectors() *ConnectorRegistry {
	return r.connectors
}

// PutRule adds or replaces a rule.
func (r *Router) PutRule(rule Rule) {
	r.rules.Put(rule)
}

// DeleteRule removes a rule and cancels its pending retries and delayed
// actions.
func (r *Router) DeleteRule(id string) error {
	if err := r.rules.Delete(id); err != nil {
		return err
	}
	r.scheduler.CancelPrefix(id + ":")
	return nil
}

// Deliveries queries delivery history.
func (r *Router) Deliveries(ctx context.Context, filter DeliveryFilter) ([]Delivery, error) {
	return r.deliveries.List(ctx, filter)
}

// DeliveryStats returns aggregate delivery counts by status.
func (r *Router) DeliveryStats(ctx context.Context) (DeliveryStats, error) {
	return r.deliveries.Stats(ctx)
}

// ProcessEvent matches the event against all active rules and executes the
// actions of every matching rule, highest priority first. Actions within a
// rule run concurrently; rules run in priority order.
func (r *Router) ProcessEvent(ctx context.Context, event events.Event) error {
	return r.processEvent(ctx, event, 0)
}

func (r *Router) processEvent(ctx context.Context, event events.Event, depth int) error {
	matched := r.matchRules(event)
	if len(matched) == 0 {
		return nil
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Priority > matched[j].Priority })

	for _, rule := range matched {
		r.metrics.IncMatched(rule.ID)
		slog.Info("Rule matched", "rule_id", rule.ID, "rule_name", rule.Name, "event_id", event.ID, "event_type", event.Type)
		r.executeRule(ctx, rule, event, depth)
	}
	return nil
}

// matchRules returns the active rules whose conditions all hold for the
// event. A failing expression evaluation skips the rule with a warning.
func (r *Router) matchRules(event events.Event) []Rule {
	var matched []Rule
	for _, rule := range r.rules.Active() {
		if !r.ruleMatches(rule, event) {
			continue
		}
		matched = append(matched, rule)
	}
	return matched
}

func (r *Router) ruleMatches(rule Rule, event events.Event) bool {
	for _, cond := range rule.Conditions {
		if !matchesCondition(cond, event) {
			return false
		}
	}
	ok, err := r.evaluator.Matches(rule.Expression, event)
	if err != nil {
		slog.Warn("Rule expression failed, skipping rule", "rule_id", rule.ID, "error", err)
		return false
	}
	return ok
}

// executeRule runs every action of a matched rule. Inline actions run
// concurrently and the call returns when all of them have completed their
// first attempt; delayed actions are scheduled and tracked separately.
func (r *Router) executeRule(ctx context.Context, rule Rule, event events.Event, depth int) {
	var wg sync.WaitGroup
	for _, action := range rule.Actions {
		if action.Delay > 0 {
			r.scheduleDelayed(rule, action, event, depth)
			continue
		}
		wg.Add(1)
		go func(action Action) {
			defer wg.Done()
			r.runAction(ctx, rule, action, event, depth)
		}(action)
	}
	wg.Wait()
}

func (r *Router) scheduleDelayed(rule Rule, action Action, event events.Event, depth int) {
	key := rule.ID + ":delay:" + uuid.NewString()
	slog.Debug("Scheduling delayed action", "rule_id", rule.ID, "action_type", action.Type, "delay", action.Delay)
	r.scheduler.Schedule(key, action.Delay, func() {
		r.runAction(r.runCtx, rule, action, event, depth)
	})
}

// runAction performs the first delivery attempt for one action.
func (r *Router) runAction(ctx context.Context, rule Rule, action Action, event events.Event, depth int) {
	if action.Type == ActionEscalate {
		r.escalate(ctx, rule, event, depth)
		return
	}

	delivery := Delivery{
		ID:       uuid.NewString(),
		EventID:  event.ID,
		RuleID:   rule.ID,
		Provider: action.Provider,
		Target:   action.Target,
		Status:   StatusPending,
	}
	if err := r.deliveries.Create(ctx, delivery); err != nil {
		slog.Error("Failed to record delivery", "rule_id", rule.ID, "error", err)
		return
	}

	message := RenderTemplate(action.Template, event)
	r.attempt(ctx, action, event, delivery, message)
}

// attempt runs one dispatch and drives the delivery lifecycle: sent on
// success, retrying with exponential backoff while attempts remain, failed
// once the attempt budget is exhausted.
func (r *Router) attempt(ctx context.Context, action Action, event events.Event, delivery Delivery, message string) {
	start := time.Now()
	err := r.dispatch(ctx, action, message)
	r.metrics.ObserveDispatch(action.Provider, time.Since(start))

	delivery.Attempts++
	delivery.LastAttempt = time.Now().UTC()

	if err == nil {
		now := time.Now().UTC()
		delivery.Status = StatusSent
		delivery.Error = ""
		delivery.DeliveredAt = &now
		r.metrics.IncDeliverySuccess(action.Provider)
		if updateErr := r.deliveries.Update(ctx, delivery); updateErr != nil {
			slog.Error("Failed to update delivery", "delivery_id", delivery.ID, "error", updateErr)
		}
		slog.Info("Notification delivered", "delivery_id", delivery.ID, "provider", action.Provider, "target", action.Target, "attempts", delivery.Attempts)
		return
	}

	delivery.Error = err.Error()
	r.metrics.IncDeliveryFailure(action.Provider, classifyFailure(err))

	if delivery.Attempts >= r.cfg.MaxAttempts || !retryable(err) {
		delivery.Status = StatusFailed
		if updateErr := r.deliveries.Update(ctx, delivery); updateErr != nil {
			slog.Error("Failed to update delivery", "delivery_id", delivery.ID, "error", updateErr)
		}
		slog.Error("Notification failed permanently", "delivery_id", delivery.ID, "provider", action.Provider, "attempts", delivery.Attempts, "error", err)
		return
	}

	backoff := r.cfg.BackoffBase * (1 << delivery.Attempts)
	delivery.Status = StatusRetrying
	if updateErr := r.deliveries.Update(ctx, delivery); updateErr != nil {
		slog.Error("Failed to update delivery", "delivery_id", delivery.ID, "error", updateErr)
	}
	slog.Warn("Notification failed, retrying", "delivery_id", delivery.ID, "provider", action.Provider, "attempt", delivery.Attempts, "backoff", backoff, "error", err)

	key := delivery.RuleID + ":retry:" + delivery.ID
	r.scheduler.Schedule(key, backoff, func() {
		r.attempt(r.runCtx, action, event, delivery, message)
	})
}

// dispatch resolves the provider's connector and performs a typed capability
// call for the action type.
func (r *Router) dispatch(ctx context.Context, action Action, message string) error {
	connector, err := r.connectors.Resolve(action.Provider)
	if err != nil {
		return err
	}

	switch action.Type {
	case ActionSendMessage:
		sender, ok := connector.(MessageSender)
		if !ok {
			return fmt.Errorf("%w: %s cannot send messages", ErrUnsupportedAction, action.Provider)
		}
		return sender.SendMessage(ctx, action.Target, message)
	case ActionSendDM:
		sender, ok := connector.(DirectMessageSender)
		if !ok {
			return fmt.Errorf("%w: %s cannot send direct messages", ErrUnsupportedAction, action.Provider)
		}
		return sender.SendDirectMessage(ctx, action.Target, message)
	case ActionCreateThread:
		creator, ok := connector.(ThreadCreator)
		if !ok {
			return fmt.Errorf("%w: %s cannot create threads", ErrUnsupportedAction, action.Provider)
		}
		return creator.CreateThread(ctx, action.Target, message, message)
	case ActionAddReaction:
		reactor, ok := connector.(ReactionSender)
		if !ok {
			return fmt.Errorf("%w: %s cannot add reactions", ErrUnsupportedAction, action.Provider)
		}
		return reactor.AddReaction(ctx, action.Target, message)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedAction, action.Type)
	}
}

// escalate synthesizes a critical-severity derived event and re-enters
// processing so higher-priority rules can fire on it. The depth guard stops
// self-referential escalation loops.
func (r *Router) escalate(ctx context.Context, rule Rule, event events.Event, depth int) {
	if depth >= r.cfg.MaxEscalationDepth {
		slog.Warn("Escalation depth limit reached, dropping",
			"rule_id", rule.ID, "event_id", event.ID, "depth", depth)
		return
	}

	data := event.CloneData()
	data["severity"] = string(events.SeverityCritical)
	data["title"] = "ESCALATED: " + event.Title()
	data["message"] = "ESCALATED: " + event.Message()
	data["escalatedFrom"] = event.ID

	derived := events.New(event.Type, event.WorkflowID, event.Source, data)
	r.metrics.IncEscalation()
	slog.Info("Escalating event", "rule_id", rule.ID, "event_id", event.ID, "derived_event_id", derived.ID, "depth", depth+1)

	if err := r.processEvent(ctx, derived, depth+1); err != nil {
		slog.Error("Escalation processing failed", "rule_id", rule.ID, "error", err)
	}
}

// retryable reports whether an error is worth retrying. Configuration
// errors fail fast; everything else is treated as transient.
func retryable(err error) bool {
	if errors.Is(err, ErrProviderNotRegistered) || errors.Is(err, ErrUnsupportedAction) {
		return false
	}
	return true
}

func classifyFailure(err error) string {
	switch {
	case errors.Is(err, ErrProviderNotRegistered):
		return "provider_not_registered"
	case errors.Is(err, ErrUnsupportedAction):
		return "unsupported_action"
	default:
		return "dispatch_error"
	}
}

// Close cancels every pending retry and delayed action. Scheduled work that
// has already started observes the cancelled run context.
func (r *Router) Close() {
	r.cancelRun()
	r.scheduler.Close()
}
