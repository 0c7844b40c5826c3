package mutations

import (
	"slices"
	"strings"
	"time"

	"Feedsync/internal/core/cache"
)

// Key is the identity of a mutation, e.g. {"vote_post", "popular"}.
// Keys are compared element by element.
type Key []string

// Equal reports whether both keys have the same elements in the same order
func (k Key) Equal(other Key) bool {
	return slices.Equal(k, other)
}

func (k Key) String() string {
	return strings.Join(k, ":")
}

// Status is a mutation lifecycle state
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Event is broadcast once per lifecycle transition of a mutation
type Event struct {
	SettledAt time.Time
	Err       error
	Store     cache.Store
	Variables map[string]any
	ID        string
	Status    Status
	Key       Key
}

// Succeeded reports whether the event is a success settlement
func (e Event) Succeeded() bool {
	return e.Status == StatusSuccess
}

// StringVar returns the string variable name, "" when absent or not a string
func (e Event) StringVar(name string) string {
	s, _ := e.Variables[name].(string)
	return s
}
