package realtime

import "sync"

// Registry maintains the bidirectional client <-> workflow subscription map.
// Both indexes are updated atomically under one lock, so a client's view of
// its subscriptions always equals the set of workflows that list it.
type Registry struct {
	mu       sync.RWMutex
	byTopic  map[string]map[string]struct{} // workflowID -> clientIDs
	byClient map[string]map[string]struct{} // clientID -> workflowIDs
}

// NewRegistry creates an empty subscription registry.
func NewRegistry() *Registry {
	return &Registry{
		byTopic:  make(map[string]map[string]struct{}),
		byClient: make(map[string]map[string]struct{}),
	}
}

// Subscribe records the client's interest in a workflow. Subscribing twice
// is a no-op.
func (r *Registry) Subscribe(clientID, workflowID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byTopic[workflowID] == nil {
		r.byTopic[workflowID] = make(map[string]struct{})
	}
	r.byTopic[workflowID][clientID] = struct{}{}

	if r.byClient[clientID] == nil {
		r.byClient[clientID] = make(map[string]struct{})
	}
	r.byClient[clientID][workflowID] = struct{}{}
}

// Unsubscribe removes one pairing. Removing a non-existent pairing is a
// no-op, never an error.
func (r *Registry) Unsubscribe(clientID, workflowID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(clientID, workflowID)
}

// Cleanup removes the client from every workflow it was subscribed to and
// clears its subscription set. Called exactly once, at disconnect.
func (r *Registry) Cleanup(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for workflowID := range r.byClient[clientID] {
		r.removeLocked(clientID, workflowID)
	}
	delete(r.byClient, clientID)
}

// removeLocked deletes one pairing from both indexes. Caller holds the lock.
func (r *Registry) removeLocked(clientID, workflowID string) {
	if subs := r.byTopic[workflowID]; subs != nil {
		delete(subs, clientID)
		if len(subs) == 0 {
			delete(r.byTopic, workflowID)
		}
	}
	if topics := r.byClient[clientID]; topics != nil {
		delete(topics, workflowID)
		if len(topics) == 0 {
			delete(r.byClient, clientID)
		}
	}
}

// Subscribers returns the ids of clients subscribed to a workflow. Always a
// (possibly empty) slice, never nil semantics the caller must special-case.
func (r *Registry) Subscribers(workflowID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byTopic[workflowID]))
	for id := range r.byTopic[workflowID] {
		out = append(out, id)
	}
	return out
}

// Subscriptions returns the workflow ids a client is subscribed to.
func (r *Registry) Subscriptions(clientID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byClient[clientID]))
	for id := range r.byClient[clientID] {
		out = append(out, id)
	}
	return out
}
