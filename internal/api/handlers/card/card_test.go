package card

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Feedsync/internal/api/handlers"
	"Feedsync/internal/api/middleware"
	"Feedsync/internal/core/features"
	"Feedsync/internal/core/feeds"
	"Feedsync/internal/core/interactions"
	"Feedsync/internal/core/polls"
	"Feedsync/internal/core/posts"
	"Feedsync/internal/core/session"
)

// fakeTransport serves a one-post feed and records votes
type fakeTransport struct {
	voteErr error
	votes   []int
}

func (f *fakeTransport) FetchPost(_ context.Context, id string) (*posts.Post, error) {
	return &posts.Post{ID: id, UserState: &posts.UserState{}}, nil
}

func (f *fakeTransport) VotePost(_ context.Context, _ string, vote int) error {
	if f.voteErr != nil {
		return f.voteErr
	}
	f.votes = append(f.votes, vote)
	return nil
}

func (f *fakeTransport) SetBookmark(context.Context, string, bool) error { return nil }

func (f *fakeTransport) VotePoll(_ context.Context, req polls.VoteRequest) (*posts.Post, error) {
	return &posts.Post{
		ID:           req.PostID,
		Type:         posts.PostTypePoll,
		NumPollVotes: 78,
		PollOptions:  []posts.PollOption{{ID: req.OptionID, NumVotes: 46}},
		UserState:    &posts.UserState{PollOption: &posts.PollOptionRef{ID: req.OptionID}},
	}, nil
}

func (f *fakeTransport) FetchFeedPage(context.Context, feeds.PageRequest) (*posts.Page, error) {
	return &posts.Page{
		PageInfo: posts.PageInfo{EndCursor: "end"},
		Edges: []posts.Edge{
			{Node: &posts.Post{ID: "1", NumUpvotes: 10, UserState: &posts.UserState{}}},
		},
	}, nil
}

type testServer struct {
	router    chi.Router
	engine    *session.Engine
	transport *fakeTransport
}

func newTestServer(t *testing.T, withEngine bool) *testServer {
	t.Helper()
	transport := &fakeTransport{}
	engine, err := session.NewEngine("s1", transport, session.Options{
		Flags:        features.NewStaticFlags("share_vote"),
		CacheEntries: 64,
	})
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	h := NewHandler()
	r := chi.NewRouter()
	if withEngine {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.SetTestEngine(req.Context(), engine)))
			})
		})
	}
	r.Get("/cards/{id}", h.HandleGet)
	r.Delete("/cards/{id}", h.HandleUnmount)
	r.Post("/cards/{id}/mount", h.HandleMount)
	r.Post("/cards/{id}/upvote", h.HandleUpvote)
	r.Post("/cards/{id}/downvote", h.HandleDownvote)
	r.Post("/cards/{id}/bookmark", h.HandleBookmark)
	r.Post("/cards/{id}/copy", h.HandleCopyLink)
	r.Post("/cards/{id}/interact", h.HandleInteract)
	r.Post("/cards/{id}/poll", h.HandlePollVote)

	return &testServer{router: r, engine: engine, transport: transport}
}

func (s *testServer) do(method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) CardView {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var v CardView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleUpvote_FeedCard(t *testing.T) {
	s := newTestServer(t, true)
	_, err := s.engine.Feeds().FetchNextPage(context.Background(), feeds.FeedRequest{FeedName: "popular"})
	require.NoError(t, err)

	v := decodeView(t, s.do(http.MethodPost, "/cards/1/mount?feed=popular", nil))
	assert.Equal(t, "1", v.PostID)
	assert.Equal(t, "popular", v.Feed)
	assert.Equal(t, polls.StateIdle, v.Poll.State)
	assert.False(t, v.ShouldShowOverlay)

	v = decodeView(t, s.do(http.MethodPost, "/cards/1/upvote?feed=popular", nil))
	assert.Equal(t, interactions.Upvote, v.Interaction)
	assert.True(t, v.ShouldShowOverlay)
	require.NotNil(t, v.Post)
	assert.Equal(t, posts.VoteUp, v.Post.Vote())
	assert.Equal(t, 11, v.Post.NumUpvotes)
	assert.Equal(t, []int{1}, s.transport.votes)

	v = decodeView(t, s.do(http.MethodPost, "/cards/1/interact?feed=popular", nil))
	assert.False(t, v.ShouldShowOverlay)
	assert.Equal(t, interactions.Upvote, v.Interaction)
}

func TestHandleDownvote_OpensPanel(t *testing.T) {
	s := newTestServer(t, true)
	_, err := s.engine.Feeds().FetchNextPage(context.Background(), feeds.FeedRequest{FeedName: "popular"})
	require.NoError(t, err)
	decodeView(t, s.do(http.MethodPost, "/cards/1/mount?feed=popular", nil))

	v := decodeView(t, s.do(http.MethodPost, "/cards/1/downvote?feed=popular", nil))
	assert.True(t, v.ShowTagsPanel)
	assert.Equal(t, interactions.Unset, v.Interaction)
	assert.Equal(t, posts.VoteDown, v.Post.Vote())

	v = decodeView(t, s.do(http.MethodPost, "/cards/1/upvote?feed=popular", nil))
	assert.False(t, v.ShowTagsPanel)
	assert.Equal(t, interactions.Upvote, v.Interaction)
	assert.Equal(t, interactions.Unset, v.PreviousInteraction)
}

func TestHandlePollVote(t *testing.T) {
	s := newTestServer(t, true)
	_, err := s.engine.Feeds().FetchNextPage(context.Background(), feeds.FeedRequest{FeedName: "popular"})
	require.NoError(t, err)
	decodeView(t, s.do(http.MethodPost, "/cards/1/mount?feed=popular", nil))

	w := s.do(http.MethodPost, "/cards/1/poll?feed=popular", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	v := decodeView(t, s.do(http.MethodPost, "/cards/1/poll?feed=popular", PollVoteInput{OptionID: "option-1"}))
	assert.Equal(t, polls.StateSettled, v.Poll.State)
	assert.False(t, v.Poll.IsCastingVote)
	require.NotNil(t, v.Post)
	assert.Equal(t, 78, v.Post.NumPollVotes)
	require.NotNil(t, v.Post.UserState.PollOption)
	assert.Equal(t, "option-1", v.Post.UserState.PollOption.ID)
}

func TestHandleInteract_SetsValue(t *testing.T) {
	s := newTestServer(t, true)
	decodeView(t, s.do(http.MethodPost, "/cards/1/mount", nil))

	v := decodeView(t, s.do(http.MethodPost, "/cards/1/interact", InteractInput{Value: interactions.Copy}))
	assert.Equal(t, interactions.Copy, v.Interaction)

	w := s.do(http.MethodPost, "/cards/1/interact", map[string]string{"value": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlers_Errors(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(s *testServer)
		method     string
		target     string
		wantStatus int
		wantError  string
		withEngine bool
	}{
		{
			name:       "no session",
			method:     http.MethodPost,
			target:     "/cards/1/upvote",
			wantStatus: http.StatusUnauthorized,
			wantError:  "SessionRequired",
		},
		{
			name:       "card not mounted",
			method:     http.MethodPost,
			target:     "/cards/1/upvote?feed=popular",
			withEngine: true,
			wantStatus: http.StatusNotFound,
			wantError:  "CardNotMounted",
		},
		{
			name:       "unmount unknown card",
			method:     http.MethodDelete,
			target:     "/cards/1?feed=popular",
			withEngine: true,
			wantStatus: http.StatusNotFound,
			wantError:  "CardNotMounted",
		},
		{
			name: "post not loaded",
			setup: func(s *testServer) {
				_, _ = s.engine.Mount("1", "popular")
			},
			method:     http.MethodPost,
			target:     "/cards/1/upvote?feed=popular",
			withEngine: true,
			wantStatus: http.StatusConflict,
			wantError:  "PostNotLoaded",
		},
		{
			name: "session closed",
			setup: func(s *testServer) {
				s.engine.Close()
			},
			method:     http.MethodPost,
			target:     "/cards/1/mount",
			withEngine: true,
			wantStatus: http.StatusGone,
			wantError:  "SessionClosed",
		},
		{
			name: "upstream failure",
			setup: func(s *testServer) {
				_, _ = s.engine.Feeds().FetchNextPage(context.Background(), feeds.FeedRequest{FeedName: "popular"})
				_, _ = s.engine.Mount("1", "popular")
				s.transport.voteErr = errors.New("connection reset")
			},
			method:     http.MethodPost,
			target:     "/cards/1/upvote?feed=popular",
			withEngine: true,
			wantStatus: http.StatusInternalServerError,
			wantError:  "InternalError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.withEngine)
			if tt.setup != nil {
				tt.setup(s)
			}

			w := s.do(tt.method, tt.target, nil)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantError, decodeError(t, w).Error)
		})
	}
}

func TestHandleUnmount(t *testing.T) {
	s := newTestServer(t, true)
	decodeView(t, s.do(http.MethodPost, "/cards/1/mount?feed=popular", nil))
	require.Equal(t, 1, s.engine.Cards())

	w := s.do(http.MethodDelete, "/cards/1?feed=popular", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, s.engine.Cards())
}
