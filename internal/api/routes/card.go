package routes

import (
	"github.com/go-chi/chi/v5"

	"Feedsync/internal/api/handlers/card"
)

// RegisterCardRoutes registers the card lifecycle and action endpoints.
// Every route takes the card's feed in the ?feed= query parameter; an
// empty feed addresses the post shown on its own.
func RegisterCardRoutes(r chi.Router) {
	h := card.NewHandler()

	r.Route("/cards/{id}", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Delete("/", h.HandleUnmount)
		r.Post("/mount", h.HandleMount)

		r.Post("/upvote", h.HandleUpvote)
		r.Post("/downvote", h.HandleDownvote)
		r.Post("/bookmark", h.HandleBookmark)
		r.Post("/copy", h.HandleCopyLink)
		r.Post("/interact", h.HandleInteract)
		r.Post("/poll", h.HandlePollVote)
	})
}
