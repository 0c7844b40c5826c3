package card

import (
	"errors"
	"log/slog"
	"net/http"

	"Feedsync/internal/api/handlers"
	"Feedsync/internal/core/polls"
	"Feedsync/internal/core/session"
	"Feedsync/internal/core/votes"
)

// handleServiceError converts service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	var voteValidation *votes.ValidationError
	var pollValidation *polls.ValidationError

	switch {
	case errors.Is(err, session.ErrInvalidCard):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Post id is required")
	case errors.Is(err, session.ErrEngineClosed):
		handlers.WriteError(w, http.StatusGone, "SessionClosed", "Session has expired")
	case errors.Is(err, votes.ErrPostNotCached):
		handlers.WriteError(w, http.StatusConflict, "PostNotLoaded", "Load the post or its feed before acting on it")
	case errors.Is(err, votes.ErrInvalidDirection):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid vote direction")
	case errors.As(err, &voteValidation):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", voteValidation.Error())
	case errors.As(err, &pollValidation):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", pollValidation.Error())
	case errors.Is(err, polls.ErrEmptyResponse):
		handlers.WriteError(w, http.StatusBadGateway, "UpstreamError", "Poll vote returned no result")
	default:
		if handlers.WriteUpstreamError(w, err) {
			return
		}
		slog.Error("card action failed", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalError", "Card action failed")
	}
}
