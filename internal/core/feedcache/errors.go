package feedcache

import "errors"

// ErrFeedNotLoaded is returned by LocateExact when the feed slot is empty.
// Locate treats the same situation as NotFound.
var ErrFeedNotLoaded = errors.New("feed not loaded")
