package mutations

import (
	"context"
	"time"

	"github.com/google/uuid"

	"Feedsync/internal/core/cache"
)

// Mutation describes one call to the transport and what to do with its result
type Mutation struct {
	// Call performs the request
	Call func(ctx context.Context) error
	// Settle runs after a successful Call and before subscribers are
	// notified. Cache patches go here.
	Settle    func()
	Store     cache.Store
	Variables map[string]any
	Key       Key
}

// Execute runs m, publishing pending and then success or error on bus.
// On success the settle step has already run when subscribers hear about
// it. On failure nothing is settled and the call's error is returned.
func Execute(ctx context.Context, bus *Bus, m Mutation) error {
	id := uuid.NewString()
	publish := func(status Status, err error) {
		bus.Publish(Event{
			ID:        id,
			Key:       m.Key,
			Variables: m.Variables,
			Status:    status,
			Err:       err,
			Store:     m.Store,
			SettledAt: time.Now(),
		})
	}

	publish(StatusPending, nil)

	if err := m.Call(ctx); err != nil {
		publish(StatusError, err)
		return err
	}

	if m.Settle != nil {
		m.Settle()
	}
	publish(StatusSuccess, nil)
	return nil
}

// MatchKeyAndVar builds a matcher for events with key whose string
// variable name equals value.
func MatchKeyAndVar(key Key, name, value string) Matcher {
	return func(ev Event) bool {
		return ev.Key.Equal(key) && ev.StringVar(name) == value
	}
}
