package post

import (
	"log/slog"
	"net/http"

	"Feedsync/internal/api/handlers"
	"Feedsync/internal/core/posts"
)

// handleServiceError maps service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case posts.IsValidationError(err):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())

	case posts.IsNotFound(err):
		handlers.WriteError(w, http.StatusNotFound, "PostNotFound", "Post not found")

	default:
		if handlers.WriteUpstreamError(w, err) {
			return
		}
		// Don't leak internal error details to clients
		slog.Error("unexpected error in post handler", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError",
			"An internal error occurred")
	}
}
