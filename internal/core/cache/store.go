package cache

import "Feedsync/internal/core/querykeys"

// Store is the session cache the engine reads from and writes to.
// Values are treated as immutable: callers replace them, never mutate them.
type Store interface {
	// Get returns the value at key and whether it was present
	Get(key querykeys.Key) (any, bool)

	// Set writes value at key, replacing whatever was there
	Set(key querykeys.Key, value any)

	// Update runs fn with the current value under the store's lock.
	// fn returns the new value and whether to write it; returning false
	// leaves the slot untouched.
	Update(key querykeys.Key, fn func(old any, ok bool) (any, bool))

	// Invalidate removes the value at key
	Invalidate(key querykeys.Key)

	// InvalidateCategory removes every value whose key has the category
	InvalidateCategory(category querykeys.Category)

	// Clear removes everything. Used when a session is torn down.
	Clear()
}

// Batcher is implemented by stores that can apply several operations
// without letting readers observe the intermediate states.
type Batcher interface {
	Batch(fn func(s Store))
}

// Batch runs fn against a batch view of store when the store supports it,
// otherwise against the store itself.
func Batch(store Store, fn func(s Store)) {
	if b, ok := store.(Batcher); ok {
		b.Batch(fn)
		return
	}
	fn(store)
}
