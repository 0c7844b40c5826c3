package polls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/looplab/fsm"

	"Feedsync/internal/core/analytics"
	"Feedsync/internal/core/cache"
	"Feedsync/internal/core/feedcache"
	"Feedsync/internal/core/mutations"
	"Feedsync/internal/core/posts"
	"Feedsync/internal/core/querykeys"
)

// Coordinator states
const (
	StateIdle    = "idle"
	StateVoting  = "voting"
	StateSettled = "settled"
	StateFailed  = "failed"
)

const (
	eventVote   = "vote"
	eventSettle = "settle"
	eventFail   = "fail"
)

const mutationVotePoll = "vote_poll"

// Event variable names
const (
	VarPostID   = "postId"
	VarOptionID = "optionId"
	VarSourceID = "sourceId"
)

// MutationKey identifies poll votes issued from feedName
func MutationKey(feedName string) mutations.Key {
	return mutations.Key{mutationVotePoll, feedName}
}

// Config binds a coordinator to one rendered poll card
type Config struct {
	// FeedKey locates the card's feed; zero when the poll is shown outside a feed
	FeedKey  querykeys.Key
	PostID   string
	FeedName string
	SourceID string
}

// Coordinator drives one poll card through idle -> voting -> settled|failed.
// Vote counts are only written once the server confirms them.
type Coordinator struct {
	machine   *fsm.FSM
	store     cache.Store
	bus       *mutations.Bus
	transport Transport
	analytics analytics.Logger
	logger    *slog.Logger
	cfg       Config

	// votes submitted and not yet settled or failed
	inFlight atomic.Int32
}

// NewCoordinator creates a coordinator in the idle state
func NewCoordinator(cfg Config, store cache.Store, bus *mutations.Bus, transport Transport, events analytics.Logger, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if events == nil {
		events = analytics.Nop{}
	}

	c := &Coordinator{
		store:     store,
		bus:       bus,
		transport: transport,
		analytics: events,
		logger:    logger.With("component", "polls", "post", cfg.PostID),
		cfg:       cfg,
	}

	c.machine = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			// a new vote may start from any state; the caller disables the
			// options while voting
			{Name: eventVote, Src: []string{StateIdle, StateVoting, StateSettled, StateFailed}, Dst: StateVoting},
			{Name: eventSettle, Src: []string{StateVoting}, Dst: StateSettled},
			{Name: eventFail, Src: []string{StateVoting}, Dst: StateFailed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				c.logger.Debug("poll state changed", "from", e.Src, "to", e.Dst)
			},
		},
	)

	return c
}

// State returns the current coordinator state
func (c *Coordinator) State() string {
	return c.machine.Current()
}

// IsCastingVote reports whether any vote is in flight
func (c *Coordinator) IsCastingVote() bool {
	return c.inFlight.Load() > 0
}

// OnVote submits a vote for optionID. On success the server's poll results
// are written to the post entity and to its copy in the card's feed in one
// batch. On failure nothing in the cache changes.
func (c *Coordinator) OnVote(ctx context.Context, optionID string) (*posts.Post, error) {
	if optionID == "" {
		return nil, NewValidationError("optionId", "required")
	}

	c.inFlight.Add(1)
	c.transition(ctx, eventVote)

	c.analytics.LogEvent(ctx, analytics.Event{
		Name:     analytics.EventVotePoll,
		TargetID: c.cfg.PostID,
		FeedName: c.cfg.FeedName,
		Extra:    map[string]any{"option_id": optionID},
	})

	req := VoteRequest{
		PostID:   c.cfg.PostID,
		OptionID: optionID,
		SourceID: c.cfg.SourceID,
	}

	var result *posts.Post
	err := mutations.Execute(ctx, c.bus, mutations.Mutation{
		Key:   MutationKey(c.cfg.FeedName),
		Store: c.store,
		Variables: map[string]any{
			VarPostID:   req.PostID,
			VarOptionID: req.OptionID,
			VarSourceID: req.SourceID,
		},
		Call: func(ctx context.Context) error {
			post, err := c.transport.VotePoll(ctx, req)
			if err != nil {
				return err
			}
			if post == nil {
				return ErrEmptyResponse
			}
			result = post
			return nil
		},
		Settle: func() {
			res := feedcache.PatchPostEverywhere(c.store, c.cfg.PostID, c.cfg.FeedKey, applyResults(result))
			c.logger.Debug("poll vote settled",
				"option", optionID,
				"entity_patched", res.Entity,
				"feed_patched", res.Feed)
		},
	})
	// the machine leaves voting only when the last overlapping vote finishes
	last := c.inFlight.Add(-1) == 0
	if err != nil {
		if last {
			c.transition(ctx, eventFail)
		}
		c.logger.Error("failed to vote on poll", "error", err, "option", optionID)
		return nil, fmt.Errorf("failed to vote on poll: %w", err)
	}

	if last {
		c.transition(ctx, eventSettle)
	}
	return result, nil
}

// transition fires an event on the machine. The request context may already
// be cancelled when a vote settles; the transition must still happen.
func (c *Coordinator) transition(ctx context.Context, event string) {
	err := c.machine.Event(context.WithoutCancel(ctx), event)
	if err == nil {
		return
	}
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return
	}
	// a concurrent vote already moved the machine on
	c.logger.Warn("poll transition rejected", "event", event, "state", c.machine.Current(), "error", err)
}

// applyResults copies the server's poll fields onto a cached post
func applyResults(result *posts.Post) posts.Updater {
	return func(p *posts.Post) *posts.Post {
		if result == nil {
			return p
		}
		p.PollOptions = append([]posts.PollOption(nil), result.PollOptions...)
		p.NumPollVotes = result.NumPollVotes
		if result.UserState != nil && result.UserState.PollOption != nil {
			if p.UserState == nil {
				p.UserState = &posts.UserState{}
			}
			ref := *result.UserState.PollOption
			p.UserState.PollOption = &ref
		}
		return p
	}
}
