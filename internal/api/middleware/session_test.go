package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Feedsync/internal/core/feeds"
	"Feedsync/internal/core/polls"
	"Feedsync/internal/core/posts"
	"Feedsync/internal/core/session"
)

type nopTransport struct{}

func (nopTransport) FetchPost(context.Context, string) (*posts.Post, error) { return nil, nil }
func (nopTransport) VotePost(context.Context, string, int) error         { return nil }
func (nopTransport) SetBookmark(context.Context, string, bool) error     { return nil }
func (nopTransport) VotePoll(context.Context, polls.VoteRequest) (*posts.Post, error) {
	return nil, nil
}
func (nopTransport) FetchFeedPage(context.Context, feeds.PageRequest) (*posts.Page, error) {
	return nil, nil
}

func newTestRegistry(t *testing.T) *session.Registry {
	t.Helper()
	r := session.NewRegistry(16, time.Hour, func(id string) (*session.Engine, error) {
		return session.NewEngine(id, nopTransport{}, session.Options{})
	}, nil)
	t.Cleanup(r.Close)
	return r
}

// echoEngine writes the attached engine's id
func echoEngine(w http.ResponseWriter, r *http.Request) {
	engine := GetEngine(r)
	if engine == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(engine.ID()))
}

func TestSessionMiddleware_CreatesAndReuses(t *testing.T) {
	registry := newTestRegistry(t)
	m := NewSessionMiddleware(NewCookieStore("0123456789abcdef0123456789abcdef"), registry, time.Hour, false, nil)
	h := m.Attach(http.HandlerFunc(echoEngine))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	firstID := w.Body.String()
	require.NotEmpty(t, firstID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, firstID, w.Body.String())
	assert.Empty(t, w.Result().Cookies(), "an existing session is not re-issued")
	assert.Equal(t, 1, registry.Len())
}

func TestSessionMiddleware_ExpiredSession(t *testing.T) {
	registry := newTestRegistry(t)
	m := NewSessionMiddleware(NewCookieStore("0123456789abcdef0123456789abcdef"), registry, time.Hour, false, nil)
	h := m.Attach(http.HandlerFunc(echoEngine))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	firstID := w.Body.String()
	cookie := w.Result().Cookies()[0]
	require.True(t, registry.Remove(firstID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.NotEqual(t, firstID, w.Body.String())
	assert.Len(t, w.Result().Cookies(), 1)
}

func TestSessionMiddleware_ForeignCookie(t *testing.T) {
	registry := newTestRegistry(t)
	issuer := NewSessionMiddleware(NewCookieStore("ffffffffffffffffffffffffffffffff"), registry, time.Hour, false, nil)
	w := httptest.NewRecorder()
	issuer.Attach(http.HandlerFunc(echoEngine)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	foreign := w.Result().Cookies()[0]

	m := NewSessionMiddleware(NewCookieStore("0123456789abcdef0123456789abcdef"), registry, time.Hour, false, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(foreign)
	w = httptest.NewRecorder()
	m.Attach(http.HandlerFunc(echoEngine)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, registry.Len())
}

func TestGetEngine_Missing(t *testing.T) {
	assert.Nil(t, GetEngine(httptest.NewRequest(http.MethodGet, "/", nil)))
}
