package feedcache

import (
	"Feedsync/internal/core/cache"
	"Feedsync/internal/core/posts"
	"Feedsync/internal/core/querykeys"
)

// LookupPost reads a post from its entity slot, falling back to its copy in
// the feed at feedKey. Posts loaded through a feed have no entity slot until
// they are opened on their own.
func LookupPost(store cache.Store, postID string, feedKey querykeys.Key) (*posts.Post, bool) {
	if v, ok := store.Get(querykeys.PostKey(postID)); ok {
		if p, ok := v.(*posts.Post); ok && p != nil {
			return p, true
		}
	}
	if feedKey.IsZero() {
		return nil, false
	}
	v, ok := store.Get(feedKey)
	if !ok {
		return nil, false
	}
	feed, _ := v.(*posts.Feed)
	loc := Locate(feed, postID)
	if !loc.Found() {
		return nil, false
	}
	return feed.Pages[loc.PageIndex].Edges[loc.EntryIndex].Node, true
}
