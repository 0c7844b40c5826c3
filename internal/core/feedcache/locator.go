package feedcache

import "Feedsync/internal/core/posts"

// Location addresses one entry inside a paginated feed
type Location struct {
	PageIndex  int
	EntryIndex int
}

// NotFound is the location reported for a post outside the loaded pages
var NotFound = Location{PageIndex: -1, EntryIndex: -1}

// Found reports whether the location points at an entry
func (l Location) Found() bool {
	return l.PageIndex >= 0 && l.EntryIndex >= 0
}

// Locate returns the first entry whose post has postID, walking pages in
// order and then entries in order. A nil feed or a missing id yields NotFound.
func Locate(feed *posts.Feed, postID string) Location {
	if feed == nil {
		return NotFound
	}
	for p, page := range feed.Pages {
		for i, edge := range page.Edges {
			if edge.Node != nil && edge.Node.ID == postID {
				return Location{PageIndex: p, EntryIndex: i}
			}
		}
	}
	return NotFound
}

// LocateExact is Locate for callers that require the feed to be loaded.
// A missing post in a loaded feed is still NotFound without an error.
func LocateExact(feed *posts.Feed, postID string) (Location, error) {
	if feed == nil {
		return NotFound, ErrFeedNotLoaded
	}
	return Locate(feed, postID), nil
}
