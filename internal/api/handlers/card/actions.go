package card

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"Feedsync/internal/api/handlers"
	"Feedsync/internal/core/interactions"
	"Feedsync/internal/core/session"
)

// PollVoteInput is the request body of a poll vote
type PollVoteInput struct {
	OptionID string `json:"optionId"`
}

// InteractInput is the request body of a direct highlight change
type InteractInput struct {
	Value interactions.Interaction `json:"value"`
}

// HandleUpvote toggles the upvote
// POST /cards/{id}/upvote?feed=
func (h *Handler) HandleUpvote(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, func(ctx context.Context, c *session.Card) error {
		return c.Actions.OnToggleUpvote(ctx)
	})
}

// HandleDownvote toggles the downvote
// POST /cards/{id}/downvote?feed=
func (h *Handler) HandleDownvote(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, func(ctx context.Context, c *session.Card) error {
		return c.Actions.OnToggleDownvote(ctx)
	})
}

// HandleBookmark toggles the bookmark
// POST /cards/{id}/bookmark?feed=
func (h *Handler) HandleBookmark(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, func(ctx context.Context, c *session.Card) error {
		return c.Actions.OnToggleBookmark(ctx)
	})
}

// HandleCopyLink records a copied link
// POST /cards/{id}/copy?feed=
func (h *Handler) HandleCopyLink(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, func(ctx context.Context, c *session.Card) error {
		return c.Actions.OnCopyLink(ctx)
	})
}

// HandleInteract dismisses the share overlay and, when a value is given,
// sets the highlight directly
// POST /cards/{id}/interact?feed=
//
// Request body (optional): { "value": "upvote" }
func (h *Handler) HandleInteract(w http.ResponseWriter, r *http.Request) {
	var input InteractInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}
	if !validInteraction(input.Value) {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Unknown interaction value")
		return
	}

	h.runAction(w, r, func(_ context.Context, c *session.Card) error {
		c.ShareLoop.OnInteract()
		if input.Value != interactions.Unset {
			c.Actions.OnInteract(input.Value)
		}
		return nil
	})
}

// HandlePollVote casts a poll vote
// POST /cards/{id}/poll?feed=
//
// Request body: { "optionId": "..." }
func (h *Handler) HandlePollVote(w http.ResponseWriter, r *http.Request) {
	var input PollVoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}
	if input.OptionID == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "optionId is required")
		return
	}

	h.runAction(w, r, func(ctx context.Context, c *session.Card) error {
		_, err := c.Poll.OnVote(ctx, input.OptionID)
		return err
	})
}

func (h *Handler) runAction(w http.ResponseWriter, r *http.Request, action func(context.Context, *session.Card) error) {
	engine, card, ok := mountedCard(w, r)
	if !ok {
		return
	}

	if err := action(r.Context(), card); err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, view(engine, card))
}

func validInteraction(v interactions.Interaction) bool {
	switch v {
	case interactions.Unset, interactions.None, interactions.Upvote, interactions.Downvote,
		interactions.Bookmark, interactions.Copy:
		return true
	}
	return false
}
