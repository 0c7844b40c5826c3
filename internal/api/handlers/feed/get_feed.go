package feed

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"Feedsync/internal/api/handlers"
	"Feedsync/internal/api/middleware"
	"Feedsync/internal/core/feeds"
	"Feedsync/internal/core/posts"
)

// FeedOutput is the feed as cached for the session
type FeedOutput struct {
	Pages       []posts.Page `json:"pages"`
	Feed        string       `json:"feed"`
	HasNextPage bool         `json:"hasNextPage"`
}

// GetFeedHandler handles feed pagination
type GetFeedHandler struct{}

// NewGetFeedHandler creates a new feed handler
func NewGetFeedHandler() *GetFeedHandler {
	return &GetFeedHandler{}
}

// HandleGetFeed fetches the next page of a feed and returns every page loaded so far
// GET /feeds/{feed}?limit=15&refresh=true
func (h *GetFeedHandler) HandleGetFeed(w http.ResponseWriter, r *http.Request) {
	engine := middleware.GetEngine(r)
	if engine == nil {
		handlers.WriteError(w, http.StatusUnauthorized, "SessionRequired", "Session required")
		return
	}

	req, err := parseRequest(r)
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}
	req.Scope = engine.Scope()

	if r.URL.Query().Get("refresh") == "true" {
		engine.Feeds().Refresh(req.Key())
	}

	feed, err := engine.Feeds().FetchNextPage(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, FeedOutput{
		Feed:        req.FeedName,
		Pages:       feed.Pages,
		HasNextPage: feed.HasNextPage(),
	})
}

func parseRequest(r *http.Request) (feeds.FeedRequest, error) {
	req := feeds.FeedRequest{FeedName: chi.URLParam(r, "feed")}

	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			return req, feeds.NewValidationError("limit", "must be a number")
		}
		req.Limit = limit
	}
	return req, nil
}
