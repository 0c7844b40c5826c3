package routes

import (
	"github.com/go-chi/chi/v5"

	"Feedsync/internal/api/handlers/post"
)

// RegisterPostRoutes registers post endpoints on the router
// The router must carry the session middleware
func RegisterPostRoutes(r chi.Router) {
	getHandler := post.NewGetPostHandler()

	// GET /posts/{id} - cached post, fetched on a miss
	r.Get("/posts/{id}", getHandler.HandleGetPost)
}
