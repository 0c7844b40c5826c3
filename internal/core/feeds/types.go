package feeds

import (
	"context"

	"Feedsync/internal/core/posts"
	"Feedsync/internal/core/querykeys"
)

// Transport fetches one cursor page of a feed
type Transport interface {
	FetchFeedPage(ctx context.Context, req PageRequest) (*posts.Page, error)
}

// Service loads feeds page by page into the session cache
type Service interface {
	// FetchNextPage appends the page after the cached last page and returns
	// the feed as stored. A feed without a next page is returned unchanged.
	FetchNextPage(ctx context.Context, req FeedRequest) (*posts.Feed, error)

	// Feed returns the cached feed at key without fetching
	Feed(key querykeys.Key) (*posts.Feed, bool)

	// Refresh drops the cached feed so the next fetch starts over
	Refresh(key querykeys.Key)
}

// FeedRequest names a feed as a reader sees it
type FeedRequest struct {
	Variables map[string]any `json:"variables,omitempty"`
	FeedName  string         `json:"feed"`
	Scope     string         `json:"-"` // Viewer scope, from the session
	Limit     int            `json:"limit"`
}

// Key returns the cache key of the requested feed
func (r FeedRequest) Key() querykeys.Key {
	return querykeys.FeedKey(r.FeedName, r.Scope, r.Variables)
}

// PageRequest is what the transport needs to fetch one page
type PageRequest struct {
	Variables map[string]any
	FeedName  string
	After     string
	First     int
}
