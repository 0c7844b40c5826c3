package routes

import (
	"github.com/go-chi/chi/v5"

	"Feedsync/internal/api/handlers/feed"
)

// RegisterFeedRoutes registers feed pagination endpoints
func RegisterFeedRoutes(r chi.Router) {
	getFeedHandler := feed.NewGetFeedHandler()

	// GET /feeds/{feed} - loads the next page
	r.Get("/feeds/{feed}", getFeedHandler.HandleGetFeed)
}
