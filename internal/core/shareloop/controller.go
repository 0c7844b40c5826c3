// Package shareloop tracks whether a card should offer sharing right after
// the viewer upvoted it.
package shareloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/looplab/fsm"

	"Feedsync/internal/core/features"
	"Feedsync/internal/core/mutations"
	"Feedsync/internal/core/posts"
	"Feedsync/internal/core/votes"
)

// Controller states
const (
	StateQuiet     = "quiet"
	StateJustVoted = "just_voted"
)

const (
	eventUpvoted  = "upvoted"
	eventUnvoted  = "unvoted"
	eventInteract = "interact"
)

// Controller follows vote settlements for one (post, feed) pair
type Controller struct {
	machine     *fsm.FSM
	flags       features.Flags
	logger      *slog.Logger
	unsubscribe func()
	closeOnce   sync.Once
	postID      string
	feedName    string
}

// NewController subscribes to successful vote mutations for postID issued
// from feedName. Call Close when the card goes away.
func NewController(postID, feedName string, bus *mutations.Bus, flags features.Flags, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if flags == nil {
		flags = features.NewStaticFlags()
	}

	c := &Controller{
		flags:    flags,
		logger:   logger.With("component", "shareloop", "post", postID, "feed", feedName),
		postID:   postID,
		feedName: feedName,
	}

	c.machine = fsm.NewFSM(
		StateQuiet,
		fsm.Events{
			{Name: eventUpvoted, Src: []string{StateQuiet, StateJustVoted}, Dst: StateJustVoted},
			{Name: eventUnvoted, Src: []string{StateQuiet, StateJustVoted}, Dst: StateQuiet},
			{Name: eventInteract, Src: []string{StateQuiet, StateJustVoted}, Dst: StateQuiet},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				c.logger.Debug("share loop state changed", "from", e.Src, "to", e.Dst)
			},
		},
	)

	c.unsubscribe = bus.Subscribe(mutations.Subscription{
		Matcher:  mutations.MatchKeyAndVar(votes.VoteMutationKey(feedName), votes.VarPostID, postID),
		Callback: c.onVoteSettled,
	})

	return c
}

func (c *Controller) onVoteSettled(ev mutations.Event) {
	if !ev.Succeeded() {
		return
	}
	vote, _ := ev.Variables[votes.VarVote].(posts.UserVote)
	if vote == posts.VoteUp {
		c.fire(eventUpvoted)
		return
	}
	c.fire(eventUnvoted)
}

// State returns the current controller state
func (c *Controller) State() string {
	return c.machine.Current()
}

// ShouldShowOverlay reports whether the share overlay is due. The share_vote
// flag gates the result without touching the state.
func (c *Controller) ShouldShowOverlay() bool {
	return c.machine.Is(StateJustVoted) && c.flags.Enabled(features.ShareVote)
}

// OnInteract dismisses the overlay
func (c *Controller) OnInteract() {
	c.fire(eventInteract)
}

// Close unsubscribes from the bus. Safe to call more than once.
func (c *Controller) Close() {
	c.closeOnce.Do(c.unsubscribe)
}

func (c *Controller) fire(event string) {
	err := c.machine.Event(context.Background(), event)
	if err == nil {
		return
	}
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return
	}
	c.logger.Warn("share loop transition rejected", "event", event, "error", err)
}
