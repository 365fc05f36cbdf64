package notify

import "time"

// Metrics receives delivery outcome counters from the router. Implementations
// must be safe for concurrent use.
type Metrics interface {
	IncMatched(ruleID string)
	IncDeliverySuccess(provider string)
	IncDeliveryFailure(provider, reason string)
	IncEscalation()
	ObserveDispatch(provider string, d time.Duration)
}

// NoopMetrics discards all observations.
type NoopMetrics struct{}

func (NoopMetrics) IncMatched(string) {}

func (NoopMetrics) IncDeliverySuccess(string) {}

func (NoopMetrics) IncDeliveryFailure(string, string) {}

func (NoopMetrics) IncEscalation() {}

func (NoopMetrics) ObserveDispatch(string, time.Duration) {}
