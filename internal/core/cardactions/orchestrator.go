package cardactions

import (
	"context"
	"log/slog"
	"sync"

	"Feedsync/internal/core/cache"
	"Feedsync/internal/core/feedcache"
	"Feedsync/internal/core/features"
	"Feedsync/internal/core/interactions"
	"Feedsync/internal/core/posts"
	"Feedsync/internal/core/querykeys"
)

// Callbacks are the side effects a card runs alongside its highlight
// transitions. Every callback is optional.
type Callbacks struct {
	OnUpvoteClick   func(ctx context.Context) error
	OnDownvoteClick func(ctx context.Context) error
	OnBookmarkClick func(ctx context.Context) error
	OnCopyLinkClick func(ctx context.Context, post *posts.Post) error
	OnShowPanel     func()
	OnHidePanel     func()
}

// Config binds an orchestrator to one rendered card
type Config struct {
	Callbacks Callbacks
	FeedKey   querykeys.Key
	PostID    string
}

// State is a snapshot of what the card highlights
type State struct {
	Interaction   interactions.Interaction `json:"interaction"`
	Previous      interactions.Interaction `json:"previousInteraction"`
	ShowTagsPanel bool                     `json:"showTagsPanel"`
}

// Orchestrator maps card button presses onto the post's interaction slot and
// the card-local downvote reason panel. The vote itself is read from the
// cached post, never from the interaction slot.
type Orchestrator struct {
	store        cache.Store
	interactions *interactions.Store
	flags        features.Flags
	logger       *slog.Logger
	callbacks    Callbacks
	feedKey      querykeys.Key
	postID       string

	mu            sync.Mutex
	showTagsPanel bool
}

// New creates an orchestrator for one card
func New(cfg Config, store cache.Store, interactionStore *interactions.Store, flags features.Flags, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if flags == nil {
		flags = features.NewStaticFlags()
	}
	return &Orchestrator{
		store:        store,
		interactions: interactionStore,
		flags:        flags,
		logger:       logger.With("component", "cardactions", "post", cfg.PostID),
		callbacks:    cfg.Callbacks,
		feedKey:      cfg.FeedKey,
		postID:       cfg.PostID,
	}
}

// State returns the card's highlight and panel state
func (o *Orchestrator) State() State {
	rec := o.interactions.Get(o.postID)
	o.mu.Lock()
	defer o.mu.Unlock()
	return State{
		Interaction:   rec.Current,
		Previous:      rec.Previous,
		ShowTagsPanel: o.showTagsPanel,
	}
}

// OnToggleUpvote highlights the upvote affordance unless the post is already
// upvoted, in which case an upvote highlight is dismissed
func (o *Orchestrator) OnToggleUpvote(ctx context.Context) error {
	if o.flags.Enabled(features.CloseTagsPanelOnUpvote) {
		o.setPanel(false)
	}

	post := o.post()
	switch {
	case post.Vote() != posts.VoteUp:
		o.interactions.Set(o.postID, interactions.Upvote)
	case o.interactions.Current(o.postID) == interactions.Upvote:
		o.interactions.Set(o.postID, interactions.None)
	}

	return o.run(ctx, "upvote", o.callbacks.OnUpvoteClick)
}

// OnToggleDownvote opens the reason panel for a new downvote without touching
// the highlight, or clears the highlight and closes the panel when the post is
// already downvoted
func (o *Orchestrator) OnToggleDownvote(ctx context.Context) error {
	post := o.post()
	if post.Vote() != posts.VoteDown {
		o.setPanel(true)
	} else {
		o.interactions.Set(o.postID, interactions.None)
		o.setPanel(false)
	}

	return o.run(ctx, "downvote", o.callbacks.OnDownvoteClick)
}

// OnToggleBookmark highlights the bookmark affordance. Un-bookmarking restores
// whatever was highlighted before, not none.
func (o *Orchestrator) OnToggleBookmark(ctx context.Context) error {
	rec := o.interactions.Get(o.postID)
	post := o.post()

	switch {
	case rec.Current == interactions.Bookmark:
		o.interactions.Set(o.postID, rec.Previous)
	case post == nil || !post.Bookmarked:
		o.interactions.Set(o.postID, interactions.Bookmark)
	}

	return o.run(ctx, "bookmark", o.callbacks.OnBookmarkClick)
}

// OnCopyLink always highlights the copy affordance
func (o *Orchestrator) OnCopyLink(ctx context.Context) error {
	o.interactions.Set(o.postID, interactions.Copy)

	if o.callbacks.OnCopyLinkClick == nil {
		return nil
	}
	if err := o.callbacks.OnCopyLinkClick(ctx, o.post()); err != nil {
		o.logger.Warn("copy link callback failed", "error", err)
		return err
	}
	return nil
}

// OnInteract sets the highlight directly
func (o *Orchestrator) OnInteract(value interactions.Interaction) {
	o.interactions.Set(o.postID, value)
}

func (o *Orchestrator) post() *posts.Post {
	post, _ := feedcache.LookupPost(o.store, o.postID, o.feedKey)
	return post
}

func (o *Orchestrator) setPanel(show bool) {
	o.mu.Lock()
	changed := o.showTagsPanel != show
	o.showTagsPanel = show
	o.mu.Unlock()

	if !changed {
		return
	}
	if show && o.callbacks.OnShowPanel != nil {
		o.callbacks.OnShowPanel()
	}
	if !show && o.callbacks.OnHidePanel != nil {
		o.callbacks.OnHidePanel()
	}
}

func (o *Orchestrator) run(ctx context.Context, action string, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	if err := fn(ctx); err != nil {
		o.logger.Warn("card action callback failed", "action", action, "error", err)
		return err
	}
	return nil
}
