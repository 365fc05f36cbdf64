package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Hub maintains the set of live clients and pushes targeted broadcasts to
// the subscribers of a workflow. The hub is the only mutator of the client
// table; the registry is the only holder of subscription state.
type Hub struct {
	registry *Registry

	// Registered clients by id.
	clients map[string]*Client
	mu      sync.RWMutex

	// Register requests from new connections.
	register chan *Client

	// Unregister requests from disconnecting clients.
	unregister chan *Client

	runCtx   context.Context
	runCtxMu sync.RWMutex
}

// NewHub creates a hub with its own subscription registry.
func NewHub() *Hub {
	return &Hub{
		registry:   NewRegistry(),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Registry exposes the hub's subscription registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Run processes register/unregister requests until ctx is cancelled, then
// closes every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	h.setRunCtx(ctx)

	for {
		select {
		case <-ctx.Done():
			h.shutdownClients()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			slog.Info("Client connected", "client_id", client.ID, "user_id", client.UserID, "team_id", client.TeamID)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				client.closeSend()
			}
			h.mu.Unlock()
			// No orphaned registry entries survive a disconnect.
			h.registry.Cleanup(client.ID)
			slog.Info("Client disconnected", "client_id", client.ID)
		}
	}
}

// Register adds a client to the table. Returns false when the hub is
// already shut down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.Done():
		return false
	}
}

// Unregister removes a client and cleans its subscriptions.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.Done():
	}
}

// BroadcastStatusUpdate pushes a workflow status change to subscribers.
func (h *Hub) BroadcastStatusUpdate(workflowID, status string, metadata map[string]any) {
	h.broadcast(workflowID, Message{
		Type:       TypeWorkflowStatusUpdate,
		WorkflowID: workflowID,
		Status:     status,
		Metadata:   metadata,
		Timestamp:  time.Now().UTC(),
	})
}

// BroadcastProgressUpdate pushes a step progress change to subscribers.
func (h *Hub) BroadcastProgressUpdate(workflowID, stepID string, progress float64, text string) {
	h.broadcast(workflowID, Message{
		Type:       TypeWorkflowProgressUpdate,
		WorkflowID: workflowID,
		StepID:     stepID,
		Progress:   progress,
		Text:       text,
		Timestamp:  time.Now().UTC(),
	})
}

// BroadcastError pushes a workflow error to subscribers.
func (h *Hub) BroadcastError(workflowID, errMsg string) {
	h.broadcast(workflowID, Message{
		Type:       TypeWorkflowError,
		WorkflowID: workflowID,
		Error:      errMsg,
		Timestamp:  time.Now().UTC(),
	})
}

// broadcast delivers msg to every open subscriber of the workflow.
// Connections not in the open state are skipped silently (the client may be
// mid-disconnect). Delivery to one client never blocks or fails delivery to
// the others.
func (h *Hub) broadcast(workflowID string, msg Message) {
	for _, clientID := range h.registry.Subscribers(workflowID) {
		h.mu.RLock()
		client := h.clients[clientID]
		h.mu.RUnlock()

		if client == nil || !client.Open() {
			continue
		}
		client.enqueue(msg)
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) setRunCtx(ctx context.Context) {
	h.runCtxMu.Lock()
	h.runCtx = ctx
	h.runCtxMu.Unlock()
}

// Done returns a channel closed when the hub's run loop has been cancelled.
func (h *Hub) Done() <-chan struct{} {
	h.runCtxMu.RLock()
	defer h.runCtxMu.RUnlock()
	if h.runCtx == nil {
		return nil
	}
	return h.runCtx.Done()
}

// shutdownClients closes every live connection with an explicit close frame
// before the listener goes away.
func (h *Hub) shutdownClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.closeSend()
		delete(h.clients, id)
		h.registry.Cleanup(id)
	}
}
