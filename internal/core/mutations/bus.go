package mutations

import (
	"log/slog"
	"sync"

	"Feedsync/internal/metrics"
)

// Matcher selects the events a subscriber cares about
type Matcher func(Event) bool

// Callback receives matched events
type Callback func(Event)

// Subscription pairs a matcher with its callback
type Subscription struct {
	Matcher  Matcher
	Callback Callback
}

type registration struct {
	sub Subscription
	id  uint64
}

// Bus is the subscription registry mutation settlements are broadcast on.
// Delivery is synchronous on the publishing goroutine, in subscription order.
type Bus struct {
	logger *slog.Logger
	live   map[uint64]struct{}
	subs   []registration
	nextID uint64
	mu     sync.RWMutex
}

// NewBus creates an empty bus
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		logger: logger,
		live:   make(map[uint64]struct{}),
	}
}

// Subscribe installs sub and returns the function that removes it.
// Every call registers an independent subscription; calling the returned
// function more than once is harmless.
func (b *Bus) Subscribe(sub Subscription) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, registration{id: id, sub: sub})
	b.live[id] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

// Publish delivers ev to every subscriber whose matcher accepts it.
// Error events are delivered like any other; callbacks filter on status.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	snapshot := make([]registration, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.RUnlock()

	metrics.MutationSettlements.WithLabelValues(ev.Key.String(), string(ev.Status)).Inc()

	delivered := 0
	for _, r := range snapshot {
		// A callback earlier in this loop may have unsubscribed r
		if !b.active(r.id) {
			continue
		}
		if r.sub.Matcher == nil || r.sub.Callback == nil || !r.sub.Matcher(ev) {
			continue
		}
		r.sub.Callback(ev)
		delivered++
	}
	metrics.BusDeliveries.Add(float64(delivered))

	b.logger.Debug("mutation event published",
		"mutation", ev.Key.String(),
		"status", ev.Status,
		"event_id", ev.ID,
		"delivered", delivered)
}

// Len returns the number of active subscriptions
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.live, id)
	for i, r := range b.subs {
		if r.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

func (b *Bus) active(id uint64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.live[id]
	return ok
}
