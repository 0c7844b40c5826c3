package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"Feedsync/internal/transport/graphql"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response
func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errorType,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// WriteJSON writes v as a JSON response
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteUpstreamError maps a transport failure onto a response.
// It returns false when err did not come from the upstream API.
func WriteUpstreamError(w http.ResponseWriter, err error) bool {
	var statusErr *graphql.StatusError
	var respErr *graphql.ResponseError
	switch {
	case errors.Is(err, graphql.ErrCircuitOpen):
		WriteError(w, http.StatusServiceUnavailable, "UpstreamUnavailable", "Upstream API is temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusGatewayTimeout, "UpstreamTimeout", "Upstream API timed out")
	case errors.As(err, &respErr):
		WriteError(w, http.StatusBadGateway, "UpstreamRejected", respErr.Error())
	case errors.As(err, &statusErr), errors.Is(err, graphql.ErrNoData):
		WriteError(w, http.StatusBadGateway, "UpstreamError", "Upstream API request failed")
	default:
		return false
	}
	return true
}
