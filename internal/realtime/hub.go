// Package realtime fans backend change notifications out to per-group
// subscribers.
//
// A subscriber only needs to know which tables changed, not every row, since
// it refetches whole lists. Each subscription therefore keeps at most one
// pending event per table: publishing never blocks on a slow reader and no
// table's change is ever lost.
package realtime

import (
	"log/slog"
	"sync"

	"github.com/mmynk/verdant/internal/metrics"
	"github.com/mmynk/verdant/internal/models"
)

// Hub routes published change events to matching subscriptions.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*Subscription)}
}

// Subscribe opens a channel scoped to groupID. The caller must Close it.
func (h *Hub) Subscribe(groupID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:      h.nextID,
		groupID: groupID,
		hub:     h,
		ready:   make(chan struct{}, 1),
		pending: make(map[models.Table]models.ChangeEvent),
	}
	h.subs[sub.id] = sub
	metrics.RealtimeSubscribers.Inc()
	slog.Debug("Realtime subscription opened", "group_id", groupID, "subscription", sub.id)
	return sub
}

// Publish delivers ev to every subscription whose channel it matches.
// Events for group-scoped tables only reach that group's subscribers.
// Unscoped events reach everyone, so they go out without group or row.
func (h *Hub) Publish(ev models.ChangeEvent) {
	if !ev.Table.GroupScoped() {
		ev.GroupID = ""
		ev.Record = nil
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, sub := range h.subs {
		if ev.Table.GroupScoped() && ev.GroupID != sub.groupID {
			continue
		}
		sub.offer(ev)
		delivered++
	}
	metrics.RealtimeEvents.WithLabelValues(string(ev.Table)).Inc()
	slog.Debug("Change published",
		"table", ev.Table,
		"type", ev.Type,
		"group_id", ev.GroupID,
		"subscribers", delivered,
	)
}

// Count returns the number of open subscriptions for groupID.
func (h *Hub) Count(groupID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, sub := range h.subs {
		if sub.groupID == groupID {
			n++
		}
	}
	return n
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[id]; ok {
		delete(h.subs, id)
		metrics.RealtimeSubscribers.Dec()
	}
}

// Subscription is one open channel on the hub.
type Subscription struct {
	id      uint64
	groupID string
	hub     *Hub

	mu      sync.Mutex
	pending map[models.Table]models.ChangeEvent
	order   []models.Table
	ready   chan struct{}
	once    sync.Once
}

// GroupID returns the group the subscription is scoped to.
func (s *Subscription) GroupID() string { return s.groupID }

// Ready is signalled whenever events are waiting to be drained.
func (s *Subscription) Ready() <-chan struct{} { return s.ready }

// Drain returns the pending events, at most one per table, in the order the
// tables first changed, and clears them.
func (s *Subscription) Drain() []models.ChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) == 0 {
		return nil
	}
	out := make([]models.ChangeEvent, 0, len(s.order))
	for _, t := range s.order {
		out = append(out, s.pending[t])
		delete(s.pending, t)
	}
	s.order = s.order[:0]
	return out
}

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.id)
		slog.Debug("Realtime subscription closed", "group_id", s.groupID, "subscription", s.id)
	})
}

func (s *Subscription) offer(ev models.ChangeEvent) {
	s.mu.Lock()
	if _, queued := s.pending[ev.Table]; !queued {
		s.order = append(s.order, ev.Table)
	}
	// The latest event for a table replaces any earlier one.
	s.pending[ev.Table] = ev
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}
