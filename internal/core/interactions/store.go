package interactions

import (
	"Feedsync/internal/core/cache"
	"Feedsync/internal/core/querykeys"
)

// Interaction names the card affordance currently highlighted for a post.
// It says nothing about the actual vote or bookmark state.
type Interaction string

const (
	// Unset means no interaction has been recorded for the post
	Unset    Interaction = ""
	None     Interaction = "none"
	Upvote   Interaction = "upvote"
	Downvote Interaction = "downvote"
	Bookmark Interaction = "bookmark"
	Copy     Interaction = "copy"
)

// Record is the two-slot interaction state of one post
type Record struct {
	Current  Interaction
	Previous Interaction
}

// Store keeps one Record per post id in the session cache under
// querykeys.PostActionsKey. Writes replace, they never merge.
type Store struct {
	cache cache.Store
}

// NewStore creates an interaction store over the session cache
func NewStore(c cache.Store) *Store {
	return &Store{cache: c}
}

// Get returns the record for postID; the zero Record when unset
func (s *Store) Get(postID string) Record {
	v, ok := s.cache.Get(querykeys.PostActionsKey(postID))
	if !ok {
		return Record{}
	}
	rec, _ := v.(Record)
	return rec
}

// Current returns the highlighted interaction for postID
func (s *Store) Current(postID string) Interaction {
	return s.Get(postID).Current
}

// Previous returns the interaction that was current before the last Set
func (s *Store) Previous(postID string) Interaction {
	return s.Get(postID).Previous
}

// Set makes value the current interaction, shifting the old current value
// into Previous. It returns the new record.
func (s *Store) Set(postID string, value Interaction) Record {
	var next Record
	s.cache.Update(querykeys.PostActionsKey(postID), func(old any, _ bool) (any, bool) {
		prev, _ := old.(Record)
		next = Record{Current: value, Previous: prev.Current}
		return next, true
	})
	return next
}

// Clear forgets the record for postID
func (s *Store) Clear(postID string) {
	s.cache.Invalidate(querykeys.PostActionsKey(postID))
}
