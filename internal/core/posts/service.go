package posts

import (
	"context"
	"fmt"
	"log/slog"

	"Feedsync/internal/core/cache"
	"Feedsync/internal/core/querykeys"
)

type postService struct {
	store   cache.Store
	fetcher Fetcher
	logger  *slog.Logger
}

// NewService creates a post service over the session store
func NewService(store cache.Store, fetcher Fetcher, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &postService{
		store:   store,
		fetcher: fetcher,
		logger:  logger,
	}
}

func (s *postService) GetPost(ctx context.Context, id string) (*Post, error) {
	if id == "" {
		return nil, NewValidationError("id", "required")
	}

	if post, ok := s.Cached(id); ok {
		return post, nil
	}

	post, err := s.fetcher.FetchPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch post: %w", err)
	}
	if post == nil {
		return nil, ErrNotFound
	}

	s.store.Set(querykeys.PostKey(id), post)
	s.logger.Debug("post cached", "post", id)

	return post, nil
}

func (s *postService) Cached(id string) (*Post, bool) {
	v, ok := s.store.Get(querykeys.PostKey(id))
	if !ok {
		return nil, false
	}
	post, ok := v.(*Post)
	if !ok {
		s.logger.Warn("unexpected value in post slot", "post", id, "error", ErrInvalidCachedValue)
		return nil, false
	}
	return post, true
}
