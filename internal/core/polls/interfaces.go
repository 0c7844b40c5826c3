package polls

import (
	"context"

	"Feedsync/internal/core/posts"
)

// VoteRequest is the payload of a poll vote
type VoteRequest struct {
	PostID   string
	OptionID string
	// SourceID identifies the surface the vote was cast from (feed or post page)
	SourceID string
}

// Transport submits poll votes and returns the post as the server now sees it
type Transport interface {
	VotePoll(ctx context.Context, req VoteRequest) (*posts.Post, error)
}
