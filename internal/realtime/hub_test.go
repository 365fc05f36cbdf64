package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id string, buf int) *Client {
	c := &Client{
		ID:     id,
		UserID: "user-" + id,
		TeamID: "team-1",
		send:   make(chan Message, buf),
	}
	c.state.Store(stateOpen)
	return c
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	// Wait until the run loop has installed its context.
	require.Eventually(t, func() bool { return h.Done() != nil }, time.Second, time.Millisecond)
	return h, cancel
}

func TestHub_RegisterUnregister(t *testing.T) {
	h, cancel := startHub(t)
	defer cancel()

	c := newTestClient("c1", sendBufSize)
	require.True(t, h.Register(c))
	assert.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	h.Registry().Subscribe(c.ID, "wf-1")
	h.Unregister(c)
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, time.Millisecond)

	// Disconnect must not leave orphaned subscriptions.
	assert.Empty(t, h.Registry().Subscribers("wf-1"))
}

func TestHub_BroadcastStatusUpdate(t *testing.T) {
	h, cancel := startHub(t)
	defer cancel()

	sub := newTestClient("sub", sendBufSize)
	other := newTestClient("other", sendBufSize)
	require.True(t, h.Register(sub))
	require.True(t, h.Register(other))
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, time.Millisecond)

	h.Registry().Subscribe(sub.ID, "wf-1")

	h.BroadcastStatusUpdate("wf-1", "running", map[string]any{"step": "build"})

	select {
	case msg := <-sub.send:
		assert.Equal(t, TypeWorkflowStatusUpdate, msg.Type)
		assert.Equal(t, "wf-1", msg.WorkflowID)
		assert.Equal(t, "running", msg.Status)
		assert.Equal(t, "build", msg.Metadata["step"])
		assert.False(t, msg.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the broadcast")
	}

	// Non-subscribers receive nothing.
	select {
	case msg := <-other.send:
		t.Fatalf("unexpected message for non-subscriber: %+v", msg)
	default:
	}
}

func TestHub_BroadcastProgressAndError(t *testing.T) {
	h, cancel := startHub(t)
	defer cancel()

	c := newTestClient("c1", sendBufSize)
	require.True(t, h.Register(c))
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)
	h.Registry().Subscribe(c.ID, "wf-1")

	h.BroadcastProgressUpdate("wf-1", "step-2", 0.5, "halfway")
	h.BroadcastError("wf-1", "step exploded")

	progress := <-c.send
	assert.Equal(t, TypeWorkflowProgressUpdate, progress.Type)
	assert.Equal(t, "step-2", progress.StepID)
	assert.InDelta(t, 0.5, progress.Progress, 1e-9)
	assert.Equal(t, "halfway", progress.Text)

	errMsg := <-c.send
	assert.Equal(t, TypeWorkflowError, errMsg.Type)
	assert.Equal(t, "step exploded", errMsg.Error)
}

func TestHub_BroadcastIsolation(t *testing.T) {
	h, cancel := startHub(t)
	defer cancel()

	// Three subscribers to the same workflow. One has a full buffer and one
	// is mid-disconnect; the healthy one must still be served.
	slow := newTestClient("slow", 1)
	closed := newTestClient("closed", sendBufSize)
	healthy := newTestClient("healthy", sendBufSize)

	for _, c := range []*Client{slow, closed, healthy} {
		require.True(t, h.Register(c))
	}
	require.Eventually(t, func() bool { return h.ClientCount() == 3 }, time.Second, time.Millisecond)

	for _, c := range []*Client{slow, closed, healthy} {
		h.Registry().Subscribe(c.ID, "wf-1")
	}

	slow.send <- Message{Type: TypeWorkflowStatusUpdate} // fill the buffer
	closed.state.Store(stateClosed)

	h.BroadcastStatusUpdate("wf-1", "completed", nil)

	select {
	case msg := <-healthy.send:
		assert.Equal(t, "completed", msg.Status)
	case <-time.After(time.Second):
		t.Fatal("healthy subscriber was not served")
	}
	assert.Empty(t, closed.send)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	h, cancel := startHub(t)

	c := newTestClient("c1", sendBufSize)
	require.True(t, h.Register(c))
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)
	h.Registry().Subscribe(c.ID, "wf-1")

	cancel()

	select {
	case _, ok := <-c.send:
		assert.False(t, ok, "send channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed on shutdown")
	}
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, time.Millisecond)
	assert.False(t, c.Open())

	// Register after shutdown is refused.
	assert.False(t, h.Register(newTestClient("late", sendBufSize)))
}

func TestClient_EnqueueAfterClose(t *testing.T) {
	c := newTestClient("c1", 1)
	c.closeSend()

	// Must not panic on the closed channel.
	assert.False(t, c.enqueue(Message{Type: TypeWorkflowStatusUpdate}))

	// Second close is a no-op.
	c.closeSend()
}

func TestServeWS_HandshakeLosesShutdownRace(t *testing.T) {
	h, cancel := startHub(t)

	// Freshly upgraded client, not yet open.
	c := &Client{ID: "c1", UserID: "u1", TeamID: "t1", send: make(chan Message, sendBufSize)}
	require.True(t, h.Register(c))
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, time.Millisecond)

	// The handshake steps after Register must refuse to send rather than
	// push the welcome frame onto a closed channel.
	assert.False(t, c.markOpen())
	assert.False(t, c.enqueue(Message{Type: TypeConnectionEstablished, ClientID: c.ID}))
}

func TestHub_UnregisterClosesSendAfterReaderExit(t *testing.T) {
	h, cancel := startHub(t)
	defer cancel()

	c := newTestClient("c1", 1)
	require.True(t, h.Register(c))
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	// A dying pump marks the client closed before unregistering; the hub
	// must still close the send channel so the write pump exits promptly.
	c.state.Store(stateClosed)
	h.Unregister(c)

	select {
	case _, ok := <-c.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}
