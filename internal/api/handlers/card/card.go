package card

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Feedsync/internal/api/handlers"
	"Feedsync/internal/api/middleware"
	"Feedsync/internal/core/feedcache"
	"Feedsync/internal/core/interactions"
	"Feedsync/internal/core/posts"
	"Feedsync/internal/core/session"
)

// PollView is the poll part of a card response
type PollView struct {
	State         string `json:"state"`
	IsCastingVote bool   `json:"isCastingVote"`
}

// CardView is what a client renders for one mounted card
type CardView struct {
	Post                *posts.Post              `json:"post,omitempty"`
	PostID              string                   `json:"postId"`
	Feed                string                   `json:"feed,omitempty"`
	Interaction         interactions.Interaction `json:"interaction"`
	PreviousInteraction interactions.Interaction `json:"previousInteraction"`
	Poll                PollView                 `json:"poll"`
	ShowTagsPanel       bool                     `json:"showTagsPanel"`
	ShouldShowOverlay   bool                     `json:"shouldShowOverlay"`
}

// Handler serves the card endpoints
type Handler struct{}

// NewHandler creates a new card handler
func NewHandler() *Handler {
	return &Handler{}
}

// HandleMount mounts a card
// POST /cards/{id}/mount?feed=
func (h *Handler) HandleMount(w http.ResponseWriter, r *http.Request) {
	engine := middleware.GetEngine(r)
	if engine == nil {
		handlers.WriteError(w, http.StatusUnauthorized, "SessionRequired", "Session required")
		return
	}

	card, err := engine.Mount(chi.URLParam(r, "id"), r.URL.Query().Get("feed"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, view(engine, card))
}

// HandleUnmount closes a card
// DELETE /cards/{id}?feed=
func (h *Handler) HandleUnmount(w http.ResponseWriter, r *http.Request) {
	engine := middleware.GetEngine(r)
	if engine == nil {
		handlers.WriteError(w, http.StatusUnauthorized, "SessionRequired", "Session required")
		return
	}

	if !engine.Unmount(chi.URLParam(r, "id"), r.URL.Query().Get("feed")) {
		handlers.WriteError(w, http.StatusNotFound, "CardNotMounted", "Card is not mounted")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGet returns a card's state
// GET /cards/{id}?feed=
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	engine, card, ok := mountedCard(w, r)
	if !ok {
		return
	}
	handlers.WriteJSON(w, http.StatusOK, view(engine, card))
}

// mountedCard resolves the card addressed by the request, writing an error
// response when there is none
func mountedCard(w http.ResponseWriter, r *http.Request) (*session.Engine, *session.Card, bool) {
	engine := middleware.GetEngine(r)
	if engine == nil {
		handlers.WriteError(w, http.StatusUnauthorized, "SessionRequired", "Session required")
		return nil, nil, false
	}

	card, ok := engine.Card(chi.URLParam(r, "id"), r.URL.Query().Get("feed"))
	if !ok {
		handlers.WriteError(w, http.StatusNotFound, "CardNotMounted", "Card is not mounted")
		return nil, nil, false
	}
	return engine, card, true
}

func view(engine *session.Engine, card *session.Card) CardView {
	st := card.Actions.State()
	v := CardView{
		PostID:              card.Key.PostID,
		Feed:                card.Key.FeedName,
		Interaction:         st.Interaction,
		PreviousInteraction: st.Previous,
		ShowTagsPanel:       st.ShowTagsPanel,
		ShouldShowOverlay:   card.ShareLoop.ShouldShowOverlay(),
		Poll: PollView{
			State:         card.Poll.State(),
			IsCastingVote: card.Poll.IsCastingVote(),
		},
	}
	if post, ok := feedcache.LookupPost(engine.Store(), card.Key.PostID, card.FeedKey); ok {
		v.Post = post
	}
	return v
}
