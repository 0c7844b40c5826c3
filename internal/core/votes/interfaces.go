package votes

import "context"

// Service toggles votes and bookmarks and keeps every cached copy of the
// post in agreement once the mutation settles
type Service interface {
	// Toggle applies the toggle rules of NextVote against the cached vote.
	// Flow: read current vote -> call transport -> patch entity and feed copy
	// -> publish the settlement on the bus.
	// On failure the cache is left as it was and the transport error is returned.
	Toggle(ctx context.Context, req VoteRequest) (*VoteResponse, error)

	// ToggleBookmark flips the bookmark state the same way
	ToggleBookmark(ctx context.Context, req BookmarkRequest) (*BookmarkResponse, error)
}

// Transport is the upstream API the mutations are sent to
type Transport interface {
	VotePost(ctx context.Context, postID string, vote int) error
	SetBookmark(ctx context.Context, postID string, bookmarked bool) error
}
