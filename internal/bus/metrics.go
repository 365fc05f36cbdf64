package bus

// Metrics receives counters from the bus client. Implementations must be
// safe for concurrent use.
type Metrics interface {
	IncPublished(topic string)
	IncPublishFailure(topic string)
	IncConsumed(topic string)
	IncDropped(topic, reason string)
	IncHandlerFailure(topic string)
}

// NoopMetrics is a Metrics implementation that does nothing.
type NoopMetrics struct{}

var _ Metrics = (*NoopMetrics)(nil)

func (*NoopMetrics) IncPublished(string)       {}
func (*NoopMetrics) IncPublishFailure(string)  {}
func (*NoopMetrics) IncConsumed(string)        {}
func (*NoopMetrics) IncDropped(string, string) {}
func (*NoopMetrics) IncHandlerFailure(string)  {}
