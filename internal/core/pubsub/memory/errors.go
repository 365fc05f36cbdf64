package memory

import "errors"

var (
	// ErrEngineClosed is returned for any operation on a closed engine.
	ErrEngineClosed = errors.New("memory pubsub engine is closed")

	// ErrPatternSubscribed is returned when a pattern already has a subscription.
	ErrPatternSubscribed = errors.New("pattern already subscribed")

	// ErrTopicNotFound is returned by admin lookups for unknown topics.
	ErrTopicNotFound = errors.New("topic not found")
)
