package feeds

import (
	"context"
	"fmt"
	"log/slog"

	"Feedsync/internal/core/cache"
	"Feedsync/internal/core/posts"
	"Feedsync/internal/core/querykeys"
)

const (
	DefaultLimit = 15
	MaxLimit     = 50
)

type feedService struct {
	store     cache.Store
	transport Transport
	logger    *slog.Logger
}

// NewService creates a feed service over the session store
func NewService(store cache.Store, transport Transport, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &feedService{
		store:     store,
		transport: transport,
		logger:    logger,
	}
}

func (s *feedService) FetchNextPage(ctx context.Context, req FeedRequest) (*posts.Feed, error) {
	if err := s.validateRequest(&req); err != nil {
		return nil, err
	}

	key := req.Key()
	current, _ := s.Feed(key)
	if !current.HasNextPage() {
		return current, nil
	}

	info, _ := current.LastPageInfo()
	page, err := s.transport.FetchFeedPage(ctx, PageRequest{
		Variables: req.Variables,
		FeedName:  req.FeedName,
		After:     info.EndCursor,
		First:     req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed page: %w", err)
	}
	if page == nil {
		return nil, ErrEmptyPage
	}

	// Append to whatever is stored now: votes that settled while the page
	// was in flight patched the stored feed, not the one read above.
	var result *posts.Feed
	s.store.Update(key, func(old any, _ bool) (any, bool) {
		stored, _ := old.(*posts.Feed)
		if last, _ := stored.LastPageInfo(); last.EndCursor != info.EndCursor {
			// another fetch for the same cursor got there first, or the
			// feed was refreshed meanwhile
			result = stored
			return nil, false
		}
		result = stored.WithPage(*page)
		return result, true
	})
	if result == nil {
		return &posts.Feed{}, nil
	}

	s.logger.Debug("feed page appended",
		"feed", req.FeedName,
		"pages", len(result.Pages),
		"posts", result.Len(),
		"has_next", result.HasNextPage())

	return result, nil
}

func (s *feedService) Feed(key querykeys.Key) (*posts.Feed, bool) {
	v, ok := s.store.Get(key)
	if !ok {
		return nil, false
	}
	feed, ok := v.(*posts.Feed)
	return feed, ok
}

func (s *feedService) Refresh(key querykeys.Key) {
	s.store.Invalidate(key)
}

// validateRequest validates the feed request parameters
func (s *feedService) validateRequest(req *FeedRequest) error {
	if req.FeedName == "" {
		return NewValidationError("feed", "required")
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		return NewValidationError("limit", fmt.Sprintf("limit must not exceed %d", MaxLimit))
	}
	return nil
}
