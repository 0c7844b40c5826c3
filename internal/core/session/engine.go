package session

import (
	"context"
	"log/slog"
	"sync"

	"Feedsync/internal/core/analytics"
	"Feedsync/internal/core/cache"
	"Feedsync/internal/core/cardactions"
	"Feedsync/internal/core/features"
	"Feedsync/internal/core/feeds"
	"Feedsync/internal/core/interactions"
	"Feedsync/internal/core/mutations"
	"Feedsync/internal/core/polls"
	"Feedsync/internal/core/posts"
	"Feedsync/internal/core/querykeys"
	"Feedsync/internal/core/shareloop"
	"Feedsync/internal/core/votes"
)

// Transport is everything an engine needs from the upstream API
type Transport interface {
	posts.Fetcher
	votes.Transport
	polls.Transport
	feeds.Transport
}

// Options configures a new engine
type Options struct {
	Flags        features.Flags
	Analytics    analytics.Logger
	Logger       *slog.Logger
	Scope        string
	CacheEntries int
}

// CardKey identifies a rendered card. The same post may be mounted in
// several feeds at once.
type CardKey struct {
	PostID   string
	FeedName string
}

// Card bundles the per-card controllers
type Card struct {
	Actions   *cardactions.Orchestrator
	ShareLoop *shareloop.Controller
	Poll      *polls.Coordinator
	FeedKey   querykeys.Key
	Key       CardKey
}

// Close releases the card's bus subscriptions
func (c *Card) Close() {
	c.ShareLoop.Close()
}

// Engine owns one viewer's cache, mutation bus and mounted cards
type Engine struct {
	store        *cache.MemoryStore
	bus          *mutations.Bus
	interactions *interactions.Store
	posts        posts.Service
	votes        votes.Service
	feeds        feeds.Service
	transport    Transport
	flags        features.Flags
	analytics    analytics.Logger
	logger       *slog.Logger
	id           string
	scope        string

	mu     sync.Mutex
	cards  map[CardKey]*Card
	closed bool
}

// NewEngine creates an engine with an empty cache
func NewEngine(id string, transport Transport, opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session", id)

	flags := opts.Flags
	if flags == nil {
		flags = features.NewStaticFlags()
	}
	events := opts.Analytics
	if events == nil {
		events = analytics.Nop{}
	}

	store, err := cache.NewMemoryStore(opts.CacheEntries, logger)
	if err != nil {
		return nil, err
	}
	bus := mutations.NewBus(logger)

	return &Engine{
		store:        store,
		bus:          bus,
		interactions: interactions.NewStore(store),
		posts:        posts.NewService(store, transport, logger),
		votes:        votes.NewService(store, bus, transport, logger),
		feeds:        feeds.NewService(store, transport, logger),
		transport:    transport,
		flags:        flags,
		analytics:    events,
		logger:       logger,
		id:           id,
		scope:        opts.Scope,
		cards:        make(map[CardKey]*Card),
	}, nil
}

// ID returns the session id
func (e *Engine) ID() string { return e.id }

// Scope returns the viewer scope used in feed keys
func (e *Engine) Scope() string { return e.scope }

// Store returns the session cache
func (e *Engine) Store() cache.Store { return e.store }

// Bus returns the session mutation bus
func (e *Engine) Bus() *mutations.Bus { return e.bus }

// Posts returns the post service
func (e *Engine) Posts() posts.Service { return e.posts }

// Votes returns the vote service
func (e *Engine) Votes() votes.Service { return e.votes }

// Feeds returns the feed service
func (e *Engine) Feeds() feeds.Service { return e.feeds }

// Interactions returns the interaction store
func (e *Engine) Interactions() *interactions.Store { return e.interactions }

// FeedKey returns the cache key of feedName for this viewer. An empty name
// is the zero key: the post is shown outside any feed.
func (e *Engine) FeedKey(feedName string) querykeys.Key {
	if feedName == "" {
		return querykeys.Key{}
	}
	return feeds.FeedRequest{FeedName: feedName, Scope: e.scope}.Key()
}

// Mount creates the controllers for a card, or returns the ones already
// mounted under the same post and feed
func (e *Engine) Mount(postID, feedName string) (*Card, error) {
	if postID == "" {
		return nil, ErrInvalidCard
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}

	key := CardKey{PostID: postID, FeedName: feedName}
	if card, ok := e.cards[key]; ok {
		return card, nil
	}

	feedKey := e.FeedKey(feedName)
	sourceID := feedName
	if sourceID == "" {
		sourceID = "post"
	}

	card := &Card{
		Key:       key,
		FeedKey:   feedKey,
		ShareLoop: shareloop.NewController(postID, feedName, e.bus, e.flags, e.logger),
		Poll: polls.NewCoordinator(polls.Config{
			FeedKey:  feedKey,
			PostID:   postID,
			FeedName: feedName,
			SourceID: sourceID,
		}, e.store, e.bus, e.transport, e.analytics, e.logger),
	}
	card.Actions = cardactions.New(cardactions.Config{
		PostID:    postID,
		FeedKey:   feedKey,
		Callbacks: e.cardCallbacks(key, feedKey),
	}, e.store, e.interactions, e.flags, e.logger)

	e.cards[key] = card
	e.logger.Debug("card mounted", "post", postID, "feed", feedName)

	return card, nil
}

// Card returns a mounted card
func (e *Engine) Card(postID, feedName string) (*Card, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	card, ok := e.cards[CardKey{PostID: postID, FeedName: feedName}]
	return card, ok
}

// Unmount closes a card. Mutations still in flight for it settle into the
// cache with nobody listening.
func (e *Engine) Unmount(postID, feedName string) bool {
	key := CardKey{PostID: postID, FeedName: feedName}

	e.mu.Lock()
	card, ok := e.cards[key]
	delete(e.cards, key)
	e.mu.Unlock()

	if !ok {
		return false
	}
	card.Close()
	e.logger.Debug("card unmounted", "post", postID, "feed", feedName)
	return true
}

// Cards returns the number of mounted cards
func (e *Engine) Cards() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cards)
}

// IsClosed reports whether Close has run
func (e *Engine) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Close unmounts every card and drops the cache. Safe to call more than once.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	cards := e.cards
	e.cards = make(map[CardKey]*Card)
	e.mu.Unlock()

	for _, card := range cards {
		card.Close()
	}
	e.store.Clear()
	e.logger.Info("session closed", "cards", len(cards))
}

// cardCallbacks wires a card's buttons to the session's mutations
func (e *Engine) cardCallbacks(key CardKey, feedKey querykeys.Key) cardactions.Callbacks {
	logEvent := func(ctx context.Context, name string) {
		e.analytics.LogEvent(ctx, analytics.Event{Name: name, TargetID: key.PostID, FeedName: key.FeedName})
	}
	// the event names the vote the toggle settled on
	vote := func(direction posts.UserVote) func(context.Context) error {
		return func(ctx context.Context) error {
			resp, err := e.votes.Toggle(ctx, votes.VoteRequest{
				FeedKey:   feedKey,
				PostID:    key.PostID,
				FeedName:  key.FeedName,
				Direction: direction,
			})
			if err != nil {
				return err
			}
			logEvent(ctx, voteEventName(resp.Vote))
			return nil
		}
	}

	return cardactions.Callbacks{
		OnUpvoteClick:   vote(posts.VoteUp),
		OnDownvoteClick: vote(posts.VoteDown),
		OnBookmarkClick: func(ctx context.Context) error {
			logEvent(ctx, analytics.EventBookmark)
			_, err := e.votes.ToggleBookmark(ctx, votes.BookmarkRequest{
				FeedKey:  feedKey,
				PostID:   key.PostID,
				FeedName: key.FeedName,
			})
			return err
		},
		OnCopyLinkClick: func(ctx context.Context, post *posts.Post) error {
			logEvent(ctx, analytics.EventCopyLink)
			if post != nil {
				e.logger.Debug("post link copied", "post", post.ID, "permalink", post.Permalink)
			}
			return nil
		},
		OnShowPanel: func() { e.logger.Debug("downvote reasons shown", "post", key.PostID) },
		OnHidePanel: func() { e.logger.Debug("downvote reasons hidden", "post", key.PostID) },
	}
}

func voteEventName(vote posts.UserVote) string {
	switch vote {
	case posts.VoteUp:
		return analytics.EventUpvote
	case posts.VoteDown:
		return analytics.EventDownvote
	default:
		return analytics.EventUnvote
	}
}
