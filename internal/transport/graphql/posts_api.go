package graphql

import (
	"context"
	"fmt"

	"Feedsync/internal/core/feeds"
	"Feedsync/internal/core/polls"
	"Feedsync/internal/core/posts"
	"Feedsync/internal/core/votes"
)

const postFields = `
  id
  title
  type
  permalink
  commentsPermalink
  numUpvotes
  numComments
  numPollVotes
  bookmarked
  endsAt
  pollOptions { id text order numVotes }
  userState { vote pollOption { id } }
`

var (
	postQuery = MustParseDocument(`query PostQuery($id: ID!) {
  post(id: $id) {` + postFields + `}
}`)

	feedQuery = MustParseDocument(`query FeedQuery($feed: String!, $first: Int!, $after: String, $variables: JSON) {
  feed(name: $feed, first: $first, after: $after, variables: $variables) {
    pageInfo { endCursor hasNextPage }
    edges { node {` + postFields + `} }
  }
}`)

	votePostMutation = MustParseDocument(`mutation VotePost($id: ID!, $vote: Int!) {
  votePost(id: $id, vote: $vote) { id }
}`)

	bookmarkPostMutation = MustParseDocument(`mutation BookmarkPost($id: ID!, $bookmarked: Boolean!) {
  bookmarkPost(id: $id, bookmarked: $bookmarked) { id }
}`)

	votePollMutation = MustParseDocument(`mutation VotePoll($postId: ID!, $optionId: ID!, $sourceId: String) {
  votePoll(postId: $postId, optionId: $optionId, sourceId: $sourceId) {` + postFields + `}
}`)
)

// PostsAPI implements the post, feed, vote and poll transports over GraphQL
type PostsAPI struct {
	client *Client
}

// NewPostsAPI creates a PostsAPI on client
func NewPostsAPI(client *Client) *PostsAPI {
	return &PostsAPI{client: client}
}

var (
	_ posts.Fetcher   = (*PostsAPI)(nil)
	_ feeds.Transport = (*PostsAPI)(nil)
	_ polls.Transport = (*PostsAPI)(nil)
	_ votes.Transport = (*PostsAPI)(nil)
)

// FetchPost loads one post. An unknown id yields posts.ErrNotFound.
func (a *PostsAPI) FetchPost(ctx context.Context, id string) (*posts.Post, error) {
	var data struct {
		Post *posts.Post `json:"post"`
	}
	if err := a.client.Do(ctx, postQuery, map[string]any{"id": id}, &data); err != nil {
		if IsNotFound(err) {
			return nil, posts.ErrNotFound
		}
		return nil, err
	}
	if data.Post == nil {
		return nil, posts.ErrNotFound
	}
	return data.Post, nil
}

// FetchFeedPage loads the page after req.After
func (a *PostsAPI) FetchFeedPage(ctx context.Context, req feeds.PageRequest) (*posts.Page, error) {
	vars := map[string]any{
		"feed":  req.FeedName,
		"first": req.First,
	}
	if req.After != "" {
		vars["after"] = req.After
	}
	if len(req.Variables) > 0 {
		vars["variables"] = req.Variables
	}

	var data struct {
		Feed *posts.Page `json:"feed"`
	}
	if err := a.client.Do(ctx, feedQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Feed == nil {
		return nil, fmt.Errorf("%w: feed %q", ErrNoData, req.FeedName)
	}
	return data.Feed, nil
}

// VotePost sets the viewer's vote: 1 up, -1 down, 0 none
func (a *PostsAPI) VotePost(ctx context.Context, postID string, vote int) error {
	return a.client.Do(ctx, votePostMutation, map[string]any{"id": postID, "vote": vote}, nil)
}

// SetBookmark bookmarks or un-bookmarks a post
func (a *PostsAPI) SetBookmark(ctx context.Context, postID string, bookmarked bool) error {
	return a.client.Do(ctx, bookmarkPostMutation, map[string]any{"id": postID, "bookmarked": bookmarked}, nil)
}

// VotePoll casts a poll vote and returns the post with confirmed results
func (a *PostsAPI) VotePoll(ctx context.Context, req polls.VoteRequest) (*posts.Post, error) {
	vars := map[string]any{
		"postId":   req.PostID,
		"optionId": req.OptionID,
	}
	if req.SourceID != "" {
		vars["sourceId"] = req.SourceID
	}

	var data struct {
		VotePoll *posts.Post `json:"votePoll"`
	}
	if err := a.client.Do(ctx, votePollMutation, vars, &data); err != nil {
		return nil, err
	}
	return data.VotePoll, nil
}
