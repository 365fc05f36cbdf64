package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// RuleStore holds notification rules in memory. Updates are last-write-wins;
// rules do not survive a restart.
type RuleStore struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRuleStore creates an empty rule store.
func NewRuleStore() *RuleStore {
	return &RuleStore{rules: make(map[string]Rule)}
}

// Put adds or replaces a rule.
func (s *RuleStore) Put(rule Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[rule.ID] = rule
}

// Get returns the rule with the given id.
func (s *RuleStore) Get(id string) (Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[id]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return rule, nil
}

// Delete removes a rule. Deleting an unknown rule is an error so operators
// notice typos.
func (s *RuleStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	delete(s.rules, id)
	return nil
}

// Active returns all active rules in no particular order.
func (s *RuleStore) Active() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rule, 0, len(s.rules))
	for _, rule := range s.rules {
		if rule.IsActive {
			out = append(out, rule)
		}
	}
	return out
}

// All returns every rule sorted by id for stable listings.
func (s *RuleStore) All() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rule, 0, len(s.rules))
	for _, rule := range s.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DeliveryStore records delivery history. The router creates deliveries in
// pending state and updates them through the retry lifecycle; queries serve
// the rule management surface.
type DeliveryStore interface {
	Create(ctx context.Context, d Delivery) error
	Update(ctx context.Context, d Delivery) error
	Get(ctx context.Context, id string) (Delivery, error)
	List(ctx context.Context, filter DeliveryFilter) ([]Delivery, error)
	Stats(ctx context.Context) (DeliveryStats, error)
}

// MemoryDeliveryStore is the in-memory DeliveryStore.
type MemoryDeliveryStore struct {
	mu         sync.RWMutex
	deliveries map[string]Delivery
	order      []string
}

// NewMemoryDeliveryStore creates an empty in-memory delivery store.
func NewMemoryDeliveryStore() *MemoryDeliveryStore {
	return &MemoryDeliveryStore{deliveries: make(map[string]Delivery)}
}

func (s *MemoryDeliveryStore) Create(_ context.Context, d Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deliveries[d.ID]; !ok {
		s.order = append(s.order, d.ID)
	}
	s.deliveries[d.ID] = d
	return nil
}

func (s *MemoryDeliveryStore) Update(_ context.Context, d Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deliveries[d.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrDeliveryNotFound, d.ID)
	}
	s.deliveries[d.ID] = d
	return nil
}

func (s *MemoryDeliveryStore) Get(_ context.Context, id string) (Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deliveries[id]
	if !ok {
		return Delivery{}, fmt.Errorf("%w: %s", ErrDeliveryNotFound, id)
	}
	return d, nil
}

// List returns deliveries matching the filter in creation order.
func (s *MemoryDeliveryStore) List(_ context.Context, filter DeliveryFilter) ([]Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Delivery, 0, len(s.order))
	for _, id := range s.order {
		d := s.deliveries[id]
		if filter.EventID != "" && d.EventID != filter.EventID {
			continue
		}
		if filter.RuleID != "" && d.RuleID != filter.RuleID {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *MemoryDeliveryStore) Stats(_ context.Context) (DeliveryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats DeliveryStats
	for _, d := range s.deliveries {
		stats.Total++
		switch d.Status {
		case StatusSent:
			stats.Sent++
		case StatusFailed:
			stats.Failed++
		case StatusPending:
			stats.Pending++
		case StatusRetrying:
			stats.Retrying++
		}
	}
	return stats, nil
}
