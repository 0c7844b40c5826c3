package feedcache

import (
	"Feedsync/internal/core/cache"
	"Feedsync/internal/core/posts"
	"Feedsync/internal/core/querykeys"
	"Feedsync/internal/metrics"
)

const (
	targetEntity = "entity"
	targetFeed   = "feed"

	resultApplied = "applied"
	resultMissing = "missing"
)

// PatchFeedEntry returns a feed with the entry at loc replaced by
// updater(clone of entry). Only the targeted page gets a new edge slice;
// every other page and every other edge is shared with the input.
// An out-of-range location returns feed itself.
func PatchFeedEntry(feed *posts.Feed, loc Location, updater posts.Updater) *posts.Feed {
	if feed == nil || !loc.Found() || loc.PageIndex >= len(feed.Pages) {
		return feed
	}
	page := feed.Pages[loc.PageIndex]
	if loc.EntryIndex >= len(page.Edges) || page.Edges[loc.EntryIndex].Node == nil {
		return feed
	}

	edges := make([]posts.Edge, len(page.Edges))
	copy(edges, page.Edges)
	edges[loc.EntryIndex] = posts.Edge{Node: updater(page.Edges[loc.EntryIndex].Node.Clone())}

	pages := make([]posts.Page, len(feed.Pages))
	copy(pages, feed.Pages)
	pages[loc.PageIndex] = posts.Page{PageInfo: page.PageInfo, Edges: edges}

	return &posts.Feed{Pages: pages}
}

// PatchEntity applies updater to the post stored at key.
// A missing slot, or one that does not hold a post, is left alone and
// false is returned.
func PatchEntity(store cache.Store, key querykeys.Key, updater posts.Updater) bool {
	applied := false
	store.Update(key, func(old any, ok bool) (any, bool) {
		if !ok {
			return nil, false
		}
		post, isPost := old.(*posts.Post)
		if !isPost || post == nil {
			return nil, false
		}
		applied = true
		return updater(post.Clone()), true
	})
	recordPatch(targetEntity, applied)
	return applied
}

// PatchPage applies updater to one entry of the feed stored at feedKey.
// Missing feeds and out-of-range indices are no-ops returning false.
func PatchPage(store cache.Store, feedKey querykeys.Key, pageIndex, entryIndex int, updater posts.Updater) bool {
	applied := false
	store.Update(feedKey, func(old any, ok bool) (any, bool) {
		if !ok {
			return nil, false
		}
		feed, isFeed := old.(*posts.Feed)
		if !isFeed {
			return nil, false
		}
		next := PatchFeedEntry(feed, Location{PageIndex: pageIndex, EntryIndex: entryIndex}, updater)
		if next == feed {
			return nil, false
		}
		applied = true
		return next, true
	})
	recordPatch(targetFeed, applied)
	return applied
}

// PatchFeedPost locates postID inside the feed at feedKey and patches the
// first match. It reports whether an entry was patched.
func PatchFeedPost(store cache.Store, feedKey querykeys.Key, postID string, updater posts.Updater) bool {
	applied := false
	store.Update(feedKey, func(old any, ok bool) (any, bool) {
		feed, _ := old.(*posts.Feed)
		loc := Locate(feed, postID)
		if !loc.Found() {
			return nil, false
		}
		applied = true
		return PatchFeedEntry(feed, loc, updater), true
	})
	recordPatch(targetFeed, applied)
	return applied
}

// PatchResult reports which copies of a post a settlement reached
type PatchResult struct {
	Entity bool
	Feed   bool
}

// PatchPostEverywhere patches the entity slot of postID and its first copy
// in the feed at feedKey in a single batch, so no reader sees one updated
// without the other. A zero feedKey skips the feed.
func PatchPostEverywhere(store cache.Store, postID string, feedKey querykeys.Key, updater posts.Updater) PatchResult {
	var res PatchResult
	cache.Batch(store, func(s cache.Store) {
		res.Entity = PatchEntity(s, querykeys.PostKey(postID), updater)
		if !feedKey.IsZero() {
			res.Feed = PatchFeedPost(s, feedKey, postID, updater)
		}
	})
	return res
}

func recordPatch(target string, applied bool) {
	result := resultMissing
	if applied {
		result = resultApplied
	}
	metrics.CachePatches.WithLabelValues(target, result).Inc()
}
