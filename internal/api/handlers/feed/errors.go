package feed

import (
	"errors"
	"log/slog"
	"net/http"

	"Feedsync/internal/api/handlers"
	"Feedsync/internal/core/feeds"
)

// handleServiceError maps service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case feeds.IsValidationError(err):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
	case errors.Is(err, feeds.ErrEmptyPage):
		handlers.WriteError(w, http.StatusBadGateway, "UpstreamError", "Feed returned no page")
	default:
		if handlers.WriteUpstreamError(w, err) {
			return
		}
		slog.Error("feed service error", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An error occurred while fetching the feed")
	}
}
