package votes

import (
	"Feedsync/internal/core/mutations"
	"Feedsync/internal/core/posts"
	"Feedsync/internal/core/querykeys"
)

// Mutation identities. The feed name scopes them so a listener in one feed
// never reacts to a vote cast in another.
const (
	mutationVotePost     = "vote_post"
	mutationBookmarkPost = "bookmark_post"
)

// VoteMutationKey identifies vote mutations issued from feedName
func VoteMutationKey(feedName string) mutations.Key {
	return mutations.Key{mutationVotePost, feedName}
}

// BookmarkMutationKey identifies bookmark mutations issued from feedName
func BookmarkMutationKey(feedName string) mutations.Key {
	return mutations.Key{mutationBookmarkPost, feedName}
}

// Event variable names
const (
	VarPostID     = "id"
	VarVote       = "vote"
	VarFeedName   = "feed"
	VarBookmarked = "bookmarked"
)

// VoteRequest asks to toggle the viewer's vote on a post.
// FeedKey is the feed the card was rendered in; a zero key means the post
// was opened outside any feed.
type VoteRequest struct {
	FeedKey   querykeys.Key
	PostID    string
	FeedName  string
	Direction posts.UserVote
}

// VoteResponse carries the vote the post ended up with
type VoteResponse struct {
	Previous posts.UserVote
	Vote     posts.UserVote
}

// BookmarkRequest asks to flip the bookmark state of a post
type BookmarkRequest struct {
	FeedKey  querykeys.Key
	PostID   string
	FeedName string
}

// BookmarkResponse carries the resulting bookmark state
type BookmarkResponse struct {
	Bookmarked bool
}

// NextVote implements the toggle rules:
//   - No vote or the other direction -> requested direction
//   - Same direction -> VoteNone (toggle off)
//   - VoteNone requested -> VoteNone
func NextVote(current, requested posts.UserVote) posts.UserVote {
	if requested == posts.VoteNone || current == requested {
		return posts.VoteNone
	}
	return requested
}

// applyVote returns an updater moving a post from its current vote to next,
// keeping the upvote counter in step.
func applyVote(next posts.UserVote) posts.Updater {
	return func(p *posts.Post) *posts.Post {
		prev := p.Vote()
		if prev == posts.VoteUp {
			p.NumUpvotes--
		}
		if next == posts.VoteUp {
			p.NumUpvotes++
		}
		if p.NumUpvotes < 0 {
			p.NumUpvotes = 0
		}
		if p.UserState == nil {
			p.UserState = &posts.UserState{}
		}
		p.UserState.Vote = next
		return p
	}
}

func applyBookmark(bookmarked bool) posts.Updater {
	return func(p *posts.Post) *posts.Post {
		p.Bookmarked = bookmarked
		return p
	}
}
