package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Feedsync/internal/api/handlers"
	"Feedsync/internal/api/middleware"
)

// GetPostHandler loads a single post into the session cache
type GetPostHandler struct{}

// NewGetPostHandler creates a new post handler
func NewGetPostHandler() *GetPostHandler {
	return &GetPostHandler{}
}

// HandleGetPost returns a post, fetching it on a cache miss
// GET /posts/{id}
func (h *GetPostHandler) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	engine := middleware.GetEngine(r)
	if engine == nil {
		handlers.WriteError(w, http.StatusUnauthorized, "SessionRequired", "Session required")
		return
	}

	post, err := engine.Posts().GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, post)
}
