package feeds

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Feedsync/internal/core/cache"
	"Feedsync/internal/core/feedcache"
	"Feedsync/internal/core/posts"
	"Feedsync/internal/core/querykeys"
)

type mockTransport struct {
	fetchFunc func(ctx context.Context, req PageRequest) (*posts.Page, error)
	requests  []PageRequest
}

func (m *mockTransport) FetchFeedPage(ctx context.Context, req PageRequest) (*posts.Page, error) {
	m.requests = append(m.requests, req)
	return m.fetchFunc(ctx, req)
}

// pager serves pages of two posts, stopping after last pages
func pager(last int) func(context.Context, PageRequest) (*posts.Page, error) {
	return func(_ context.Context, req PageRequest) (*posts.Page, error) {
		n := 0
		if req.After != "" {
			_, err := fmt.Sscanf(req.After, "cursor-%d", &n)
			if err != nil {
				return nil, err
			}
		}
		n++
		return &posts.Page{
			PageInfo: posts.PageInfo{EndCursor: fmt.Sprintf("cursor-%d", n), HasNextPage: n < last},
			Edges: []posts.Edge{
				{Node: &posts.Post{ID: fmt.Sprintf("p%d-a", n), UserState: &posts.UserState{}}},
				{Node: &posts.Post{ID: fmt.Sprintf("p%d-b", n), UserState: &posts.UserState{}}},
			},
		}, nil
	}
}

func newService(t *testing.T, transport Transport) (Service, *cache.MemoryStore) {
	t.Helper()
	store, err := cache.NewMemoryStore(32, nil)
	require.NoError(t, err)
	return NewService(store, transport, nil), store
}

func TestFetchNextPage_Paginates(t *testing.T) {
	transport := &mockTransport{fetchFunc: pager(2)}
	svc, _ := newService(t, transport)
	req := FeedRequest{FeedName: "popular"}

	feed, err := svc.FetchNextPage(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, feed.Pages, 1)
	assert.True(t, feed.HasNextPage())

	feed, err = svc.FetchNextPage(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, feed.Pages, 2)
	assert.Equal(t, 4, feed.Len())
	assert.False(t, feed.HasNextPage())

	// the last page stops further fetches
	feed, err = svc.FetchNextPage(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, feed.Pages, 2)
	require.Len(t, transport.requests, 2)
	assert.Equal(t, "", transport.requests[0].After)
	assert.Equal(t, "cursor-1", transport.requests[1].After)
	assert.Equal(t, DefaultLimit, transport.requests[0].First)
}

func TestFetchNextPage_KeepsPatchesFromDuringFetch(t *testing.T) {
	transport := &mockTransport{fetchFunc: pager(3)}
	svc, store := newService(t, transport)
	req := FeedRequest{FeedName: "popular"}

	_, err := svc.FetchNextPage(context.Background(), req)
	require.NoError(t, err)

	next := pager(3)
	transport.fetchFunc = func(ctx context.Context, pr PageRequest) (*posts.Page, error) {
		// a vote settles while the page is in flight
		feedcache.PatchFeedPost(store, req.Key(), "p1-a", func(p *posts.Post) *posts.Post {
			p.UserState.Vote = posts.VoteUp
			return p
		})
		return next(ctx, pr)
	}

	feed, err := svc.FetchNextPage(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, feed.Pages, 2)
	assert.Equal(t, posts.VoteUp, feed.Pages[0].Edges[0].Node.Vote())
}

func TestFetchNextPage_DoesNotFillEntitySlots(t *testing.T) {
	svc, store := newService(t, &mockTransport{fetchFunc: pager(1)})

	_, err := svc.FetchNextPage(context.Background(), FeedRequest{FeedName: "popular"})
	require.NoError(t, err)

	_, ok := store.Get(querykeys.PostKey("p1-a"))
	assert.False(t, ok)
}

func TestFetchNextPage_Errors(t *testing.T) {
	tests := []struct {
		name      string
		req       FeedRequest
		fetch     func(context.Context, PageRequest) (*posts.Page, error)
		wantErr   error
		wantValid bool
	}{
		{name: "missing feed", req: FeedRequest{}, wantValid: true},
		{name: "limit too high", req: FeedRequest{FeedName: "popular", Limit: MaxLimit + 1}, wantValid: true},
		{
			name:    "empty page",
			req:     FeedRequest{FeedName: "popular"},
			fetch:   func(context.Context, PageRequest) (*posts.Page, error) { return nil, nil },
			wantErr: ErrEmptyPage,
		},
		{
			name:  "transport failure",
			req:   FeedRequest{FeedName: "popular"},
			fetch: func(context.Context, PageRequest) (*posts.Page, error) { return nil, errors.New("down") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newService(t, &mockTransport{fetchFunc: tt.fetch})
			_, err := svc.FetchNextPage(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.wantValid, IsValidationError(err))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Zero(t, store.Len())
		})
	}
}

func TestRefresh(t *testing.T) {
	svc, _ := newService(t, &mockTransport{fetchFunc: pager(3)})
	req := FeedRequest{FeedName: "popular", Scope: "user-1"}

	_, err := svc.FetchNextPage(context.Background(), req)
	require.NoError(t, err)
	_, ok := svc.Feed(req.Key())
	require.True(t, ok)

	svc.Refresh(req.Key())
	_, ok = svc.Feed(req.Key())
	assert.False(t, ok)
}
