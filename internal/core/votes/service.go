package votes

import (
	"context"
	"fmt"
	"log/slog"

	"Feedsync/internal/core/cache"
	"Feedsync/internal/core/feedcache"
	"Feedsync/internal/core/mutations"
	"Feedsync/internal/core/posts"
	"Feedsync/internal/core/querykeys"
)

type voteService struct {
	store     cache.Store
	bus       *mutations.Bus
	transport Transport
	logger    *slog.Logger
}

// NewService creates a vote service bound to one session's store and bus
func NewService(store cache.Store, bus *mutations.Bus, transport Transport, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &voteService{
		store:     store,
		bus:       bus,
		transport: transport,
		logger:    logger,
	}
}

func (s *voteService) Toggle(ctx context.Context, req VoteRequest) (*VoteResponse, error) {
	if req.PostID == "" {
		return nil, NewValidationError("postId", "required")
	}
	if req.Direction < posts.VoteDown || req.Direction > posts.VoteUp {
		return nil, ErrInvalidDirection
	}

	current, err := s.cachedPost(req.PostID, req.FeedKey)
	if err != nil {
		return nil, err
	}
	prev := current.Vote()
	next := NextVote(prev, req.Direction)

	err = mutations.Execute(ctx, s.bus, mutations.Mutation{
		Key:   VoteMutationKey(req.FeedName),
		Store: s.store,
		Variables: map[string]any{
			VarPostID:   req.PostID,
			VarVote:     next,
			VarFeedName: req.FeedName,
		},
		Call: func(ctx context.Context) error {
			return s.transport.VotePost(ctx, req.PostID, int(next))
		},
		Settle: func() {
			res := feedcache.PatchPostEverywhere(s.store, req.PostID, req.FeedKey, applyVote(next))
			s.logger.Debug("vote settled",
				"post", req.PostID,
				"feed", req.FeedName,
				"entity_patched", res.Entity,
				"feed_patched", res.Feed)
		},
	})
	if err != nil {
		s.logger.Error("failed to vote on post",
			"error", err,
			"post", req.PostID,
			"vote", next.String())
		return nil, fmt.Errorf("failed to vote: %w", err)
	}

	s.logger.Info("vote toggled",
		"post", req.PostID,
		"feed", req.FeedName,
		"old_vote", prev.String(),
		"new_vote", next.String())

	return &VoteResponse{Previous: prev, Vote: next}, nil
}

func (s *voteService) ToggleBookmark(ctx context.Context, req BookmarkRequest) (*BookmarkResponse, error) {
	if req.PostID == "" {
		return nil, NewValidationError("postId", "required")
	}

	current, err := s.cachedPost(req.PostID, req.FeedKey)
	if err != nil {
		return nil, err
	}
	next := !current.Bookmarked

	err = mutations.Execute(ctx, s.bus, mutations.Mutation{
		Key:   BookmarkMutationKey(req.FeedName),
		Store: s.store,
		Variables: map[string]any{
			VarPostID:     req.PostID,
			VarBookmarked: next,
			VarFeedName:   req.FeedName,
		},
		Call: func(ctx context.Context) error {
			return s.transport.SetBookmark(ctx, req.PostID, next)
		},
		Settle: func() {
			feedcache.PatchPostEverywhere(s.store, req.PostID, req.FeedKey, applyBookmark(next))
			// bookmark lists are rebuilt on next read
			s.store.InvalidateCategory(querykeys.CategoryBookmarks)
		},
	})
	if err != nil {
		s.logger.Error("failed to toggle bookmark",
			"error", err,
			"post", req.PostID,
			"bookmarked", next)
		return nil, fmt.Errorf("failed to toggle bookmark: %w", err)
	}

	s.logger.Info("bookmark toggled", "post", req.PostID, "bookmarked", next)

	return &BookmarkResponse{Bookmarked: next}, nil
}

// cachedPost reads the post from the entity slot, falling back to its copy
// in the feed the request came from
func (s *voteService) cachedPost(postID string, feedKey querykeys.Key) (*posts.Post, error) {
	post, ok := feedcache.LookupPost(s.store, postID, feedKey)
	if !ok {
		return nil, ErrPostNotCached
	}
	return post, nil
}
