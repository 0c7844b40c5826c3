package polls

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Feedsync/internal/core/analytics"
	"Feedsync/internal/core/cache"
	"Feedsync/internal/core/feedcache"
	"Feedsync/internal/core/mutations"
	"Feedsync/internal/core/posts"
	"Feedsync/internal/core/querykeys"
)

type mockTransport struct {
	voteFunc func(ctx context.Context, req VoteRequest) (*posts.Post, error)
	requests []VoteRequest
}

func (m *mockTransport) VotePoll(ctx context.Context, req VoteRequest) (*posts.Post, error) {
	m.requests = append(m.requests, req)
	return m.voteFunc(ctx, req)
}

type recordingAnalytics struct {
	events []analytics.Event
}

func (r *recordingAnalytics) LogEvent(_ context.Context, ev analytics.Event) {
	r.events = append(r.events, ev)
}

func pollPost() *posts.Post {
	return &posts.Post{
		ID:           "p1",
		Type:         posts.PostTypePoll,
		NumPollVotes: 77,
		PollOptions: []posts.PollOption{
			{ID: "option-1", Text: "yes", Order: 0, NumVotes: 45},
			{ID: "option-2", Text: "no", Order: 1, NumVotes: 32},
		},
		UserState: &posts.UserState{},
	}
}

func serverResult() *posts.Post {
	p := pollPost()
	p.NumPollVotes = 78
	p.PollOptions[0].NumVotes = 46
	p.UserState = &posts.UserState{PollOption: &posts.PollOptionRef{ID: "option-1"}}
	return p
}

type fixture struct {
	store     *cache.MemoryStore
	bus       *mutations.Bus
	transport *mockTransport
	events    *recordingAnalytics
	feedKey   querykeys.Key
	coord     *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := cache.NewMemoryStore(64, nil)
	require.NoError(t, err)

	f := &fixture{
		store:     store,
		bus:       mutations.NewBus(nil),
		transport: &mockTransport{},
		events:    &recordingAnalytics{},
		feedKey:   querykeys.FeedKey("popular", "", nil),
	}
	store.Set(querykeys.PostKey("p1"), pollPost())
	store.Set(f.feedKey, &posts.Feed{Pages: []posts.Page{
		{Edges: []posts.Edge{{Node: &posts.Post{ID: "x"}}, {Node: pollPost()}}},
	}})

	f.coord = NewCoordinator(Config{
		FeedKey:  f.feedKey,
		PostID:   "p1",
		FeedName: "popular",
		SourceID: "feed",
	}, store, f.bus, f.transport, f.events, nil)
	return f
}

func (f *fixture) embedded(t *testing.T) *posts.Post {
	t.Helper()
	v, ok := f.store.Get(f.feedKey)
	require.True(t, ok)
	feed := v.(*posts.Feed)
	loc := feedcache.Locate(feed, "p1")
	require.True(t, loc.Found())
	return feed.Pages[loc.PageIndex].Edges[loc.EntryIndex].Node
}

func TestCoordinator_SettlesBothCopies(t *testing.T) {
	f := newFixture(t)
	f.transport.voteFunc = func(context.Context, VoteRequest) (*posts.Post, error) {
		return serverResult(), nil
	}

	// both copies must already agree when the success event is delivered
	var agreedOnSuccess bool
	f.bus.Subscribe(mutations.Subscription{
		Matcher: mutations.MatchKeyAndVar(MutationKey("popular"), VarPostID, "p1"),
		Callback: func(ev mutations.Event) {
			if !ev.Succeeded() {
				return
			}
			entity, _ := ev.Store.Get(querykeys.PostKey("p1"))
			agreedOnSuccess = entity.(*posts.Post).NumPollVotes == f.embedded(t).NumPollVotes
		},
	})

	assert.Equal(t, StateIdle, f.coord.State())
	_, err := f.coord.OnVote(context.Background(), "option-1")
	require.NoError(t, err)
	assert.Equal(t, StateSettled, f.coord.State())
	assert.False(t, f.coord.IsCastingVote())
	assert.True(t, agreedOnSuccess)

	v, _ := f.store.Get(querykeys.PostKey("p1"))
	entity := v.(*posts.Post)
	embedded := f.embedded(t)

	for _, p := range []*posts.Post{entity, embedded} {
		require.NotNil(t, p.UserState.PollOption)
		assert.Equal(t, "option-1", p.UserState.PollOption.ID)
		assert.Equal(t, 78, p.NumPollVotes)
		assert.Equal(t, 46, p.PollOptions[0].NumVotes)
		assert.Equal(t, 32, p.PollOptions[1].NumVotes)
	}

	require.Len(t, f.transport.requests, 1)
	assert.Equal(t, VoteRequest{PostID: "p1", OptionID: "option-1", SourceID: "feed"}, f.transport.requests[0])
}

func TestCoordinator_FailureLeavesCounts(t *testing.T) {
	f := newFixture(t)
	f.transport.voteFunc = func(context.Context, VoteRequest) (*posts.Post, error) {
		return nil, errors.New("bad gateway")
	}

	_, err := f.coord.OnVote(context.Background(), "option-2")
	require.Error(t, err)
	assert.Equal(t, StateFailed, f.coord.State())

	v, _ := f.store.Get(querykeys.PostKey("p1"))
	assert.Equal(t, 77, v.(*posts.Post).NumPollVotes)
	assert.Nil(t, v.(*posts.Post).UserState.PollOption)
	assert.Equal(t, 77, f.embedded(t).NumPollVotes)

	// a retry is allowed from the failed state
	f.transport.voteFunc = func(context.Context, VoteRequest) (*posts.Post, error) {
		return serverResult(), nil
	}
	_, err = f.coord.OnVote(context.Background(), "option-1")
	require.NoError(t, err)
	assert.Equal(t, StateSettled, f.coord.State())
}

func TestCoordinator_EmptyResponse(t *testing.T) {
	f := newFixture(t)
	f.transport.voteFunc = func(context.Context, VoteRequest) (*posts.Post, error) {
		return nil, nil
	}

	_, err := f.coord.OnVote(context.Background(), "option-1")
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, StateFailed, f.coord.State())
}

func TestCoordinator_IsCastingVoteDuringCall(t *testing.T) {
	f := newFixture(t)

	var casting bool
	f.transport.voteFunc = func(context.Context, VoteRequest) (*posts.Post, error) {
		casting = f.coord.IsCastingVote()
		return serverResult(), nil
	}

	_, err := f.coord.OnVote(context.Background(), "option-1")
	require.NoError(t, err)
	assert.True(t, casting)
}

func TestCoordinator_OverlappingVotesStayCasting(t *testing.T) {
	f := newFixture(t)

	var (
		afterInner   bool
		innerState   string
		innerCasting bool
	)
	f.transport.voteFunc = func(ctx context.Context, req VoteRequest) (*posts.Post, error) {
		if req.OptionID == "option-2" {
			return serverResult(), nil
		}
		// a second vote starts and settles while the first is still waiting
		_, err := f.coord.OnVote(ctx, "option-2")
		afterInner = err == nil
		innerState = f.coord.State()
		innerCasting = f.coord.IsCastingVote()
		return serverResult(), nil
	}

	_, err := f.coord.OnVote(context.Background(), "option-1")
	require.NoError(t, err)

	assert.True(t, afterInner)
	assert.Equal(t, StateVoting, innerState)
	assert.True(t, innerCasting)
	assert.False(t, f.coord.IsCastingVote())
	assert.Equal(t, StateSettled, f.coord.State())
}

func TestCoordinator_LogsOncePerSubmission(t *testing.T) {
	f := newFixture(t)
	f.transport.voteFunc = func(context.Context, VoteRequest) (*posts.Post, error) {
		return nil, errors.New("timeout")
	}

	_, _ = f.coord.OnVote(context.Background(), "option-2")
	require.Len(t, f.events.events, 1)
	assert.Equal(t, analytics.EventVotePoll, f.events.events[0].Name)
	assert.Equal(t, "option-2", f.events.events[0].Extra["option_id"])
}

func TestCoordinator_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.OnVote(context.Background(), "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "optionId", verr.Field)
	assert.Equal(t, StateIdle, f.coord.State())
	assert.Empty(t, f.transport.requests)
}

func TestCoordinator_OutsideFeed(t *testing.T) {
	f := newFixture(t)
	coord := NewCoordinator(Config{PostID: "p1", SourceID: "post"}, f.store, f.bus, f.transport, nil, nil)
	f.transport.voteFunc = func(context.Context, VoteRequest) (*posts.Post, error) {
		return serverResult(), nil
	}

	_, err := coord.OnVote(context.Background(), "option-1")
	require.NoError(t, err)

	v, _ := f.store.Get(querykeys.PostKey("p1"))
	assert.Equal(t, 78, v.(*posts.Post).NumPollVotes)
	assert.Equal(t, 77, f.embedded(t).NumPollVotes, "no feed key means the feed copy is left alone")
}
