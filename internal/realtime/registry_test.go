package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_SubscribeUnsubscribe(t *testing.T) {
	r := NewRegistry()

	r.Subscribe("client-1", "wf-a")
	r.Subscribe("client-1", "wf-b")
	r.Subscribe("client-2", "wf-a")

	assert.ElementsMatch(t, []string{"client-1", "client-2"}, r.Subscribers("wf-a"))
	assert.ElementsMatch(t, []string{"client-1"}, r.Subscribers("wf-b"))
	assert.ElementsMatch(t, []string{"wf-a", "wf-b"}, r.Subscriptions("client-1"))

	r.Unsubscribe("client-1", "wf-a")

	assert.ElementsMatch(t, []string{"client-2"}, r.Subscribers("wf-a"))
	assert.ElementsMatch(t, []string{"wf-b"}, r.Subscriptions("client-1"))
}

func TestRegistry_SubscribeIdempotent(t *testing.T) {
	r := NewRegistry()

	r.Subscribe("client-1", "wf-a")
	r.Subscribe("client-1", "wf-a")

	assert.Len(t, r.Subscribers("wf-a"), 1)
	assert.Len(t, r.Subscriptions("client-1"), 1)
}

func TestRegistry_UnsubscribeUnknown(t *testing.T) {
	r := NewRegistry()

	// Must not panic or create state.
	r.Unsubscribe("ghost", "wf-a")

	assert.Empty(t, r.Subscribers("wf-a"))
	assert.Empty(t, r.Subscriptions("ghost"))
}

func TestRegistry_CleanupRemovesBothDirections(t *testing.T) {
	r := NewRegistry()

	r.Subscribe("client-1", "wf-a")
	r.Subscribe("client-1", "wf-b")
	r.Subscribe("client-2", "wf-a")

	r.Cleanup("client-1")

	assert.ElementsMatch(t, []string{"client-2"}, r.Subscribers("wf-a"))
	assert.Empty(t, r.Subscribers("wf-b"))
	assert.Empty(t, r.Subscriptions("client-1"))
}

func TestRegistry_NeverReturnsNil(t *testing.T) {
	r := NewRegistry()

	assert.NotNil(t, r.Subscribers("missing"))
	assert.NotNil(t, r.Subscriptions("missing"))
}

func TestRegistry_Concurrency(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			clientID := fmt.Sprintf("client-%d", n)
			r.Subscribe(clientID, "wf-shared")
			r.Subscribers("wf-shared")
			r.Subscriptions(clientID)
			if n%2 == 0 {
				r.Cleanup(clientID)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.Subscribers("wf-shared"), 10)
}
