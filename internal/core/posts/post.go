package posts

import (
	"time"

	"github.com/tiendc/go-deepcopy"
)

// UserVote is the viewer's vote on a post
type UserVote int

const (
	VoteDown UserVote = -1
	VoteNone UserVote = 0
	VoteUp   UserVote = 1
)

func (v UserVote) String() string {
	switch v {
	case VoteUp:
		return "up"
	case VoteDown:
		return "down"
	default:
		return "none"
	}
}

// PostType distinguishes poll posts from everything else
type PostType string

const (
	PostTypeArticle  PostType = "article"
	PostTypeFreeform PostType = "freeform"
	PostTypeShare    PostType = "share"
	PostTypePoll     PostType = "poll"
)

// PollOption is one choice of a poll post
type PollOption struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Order    int    `json:"order"`
	NumVotes int    `json:"numVotes"`
}

// PollOptionRef points at the option the viewer chose
type PollOptionRef struct {
	ID string `json:"id"`
}

// UserState is the viewer's relationship with the post
type UserState struct {
	PollOption *PollOptionRef `json:"pollOption,omitempty"`
	Vote       UserVote       `json:"vote"`
}

// Post is the cached representation of a feed post.
// The same post can live in the entity slot and inside any number of feed
// pages; those copies are separate values kept in agreement by the patchers.
type Post struct {
	EndsAt       *time.Time   `json:"endsAt,omitempty"`
	UserState    *UserState   `json:"userState,omitempty"`
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Permalink    string       `json:"permalink"`
	CommentsLink string       `json:"commentsPermalink,omitempty"`
	Type         PostType     `json:"type"`
	PollOptions  []PollOption `json:"pollOptions,omitempty"`
	NumUpvotes   int          `json:"numUpvotes"`
	NumComments  int          `json:"numComments"`
	NumPollVotes int          `json:"numPollVotes,omitempty"`
	Bookmarked   bool         `json:"bookmarked"`
}

// Vote returns the viewer's vote, VoteNone when there is no user state
func (p *Post) Vote() UserVote {
	if p == nil || p.UserState == nil {
		return VoteNone
	}
	return p.UserState.Vote
}

// IsPoll reports whether the post carries poll options
func (p *Post) IsPoll() bool {
	return p != nil && p.Type == PostTypePoll
}

// Clone returns a deep copy. Updaters receive clones so writes never reach
// a slice still shared with another cached copy.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	var out Post
	if err := deepcopy.Copy(&out, p); err != nil {
		// Post only holds plain data; fall back to a manual copy
		out = *p
		if p.UserState != nil {
			us := *p.UserState
			if p.UserState.PollOption != nil {
				ref := *p.UserState.PollOption
				us.PollOption = &ref
			}
			out.UserState = &us
		}
		out.PollOptions = append([]PollOption(nil), p.PollOptions...)
		if p.EndsAt != nil {
			endsAt := *p.EndsAt
			out.EndsAt = &endsAt
		}
	}
	return &out
}

// Updater is a pure function from the current post to the next one.
// It receives a clone and may modify and return it.
type Updater func(post *Post) *Post
