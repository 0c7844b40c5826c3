package posts

import "context"

// Service reads posts through the session's entity cache
type Service interface {
	// GetPost returns the cached entity for id, fetching and caching it on a miss.
	// A hit never reaches the transport.
	GetPost(ctx context.Context, id string) (*Post, error)

	// Cached returns the entity slot without fetching
	Cached(id string) (*Post, bool)
}

// Fetcher is the transport query that loads a single post
type Fetcher interface {
	FetchPost(ctx context.Context, id string) (*Post, error)
}
