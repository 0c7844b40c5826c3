package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"Feedsync/internal/core/session"
)

const (
	// SessionCookieName is the cookie holding the session id
	SessionCookieName = "feedsync_session"

	sessionIDValue = "sid"

	// EngineKey is the context key for the request's session engine
	EngineKey contextKey = "session_engine"
)

type contextKey string

// SessionMiddleware resolves the session cookie to an engine, creating a
// new session when the cookie is missing, invalid or expired
type SessionMiddleware struct {
	store    sessions.Store
	registry *session.Registry
	logger   *slog.Logger
	maxAge   time.Duration
	secure   bool
}

// NewSessionMiddleware creates the middleware. secure marks the cookie
// HTTPS-only.
func NewSessionMiddleware(store sessions.Store, registry *session.Registry, maxAge time.Duration, secure bool, logger *slog.Logger) *SessionMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionMiddleware{
		store:    store,
		registry: registry,
		logger:   logger,
		maxAge:   maxAge,
		secure:   secure,
	}
}

// NewCookieStore creates the signed cookie store for session ids
func NewCookieStore(secret string) *sessions.CookieStore {
	return sessions.NewCookieStore([]byte(secret))
}

// Attach injects the session engine into the request context
func (m *SessionMiddleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpSession, err := m.store.Get(r, SessionCookieName)
		if err != nil {
			// a cookie signed with another secret decodes to a fresh session
			m.logger.Debug("discarding unreadable session cookie", "error", err)
		}
		if httpSession == nil {
			m.logger.Error("failed to create cookie session", "error", err)
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}

		id, _ := httpSession.Values[sessionIDValue].(string)
		engine, created, err := m.registry.GetOrCreate(id)
		if err != nil {
			m.logger.Error("failed to create session engine", "error", err)
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}

		if created {
			httpSession.Values[sessionIDValue] = engine.ID()
			httpSession.Options.Path = "/"
			httpSession.Options.MaxAge = int(m.maxAge.Seconds())
			httpSession.Options.HttpOnly = true
			httpSession.Options.Secure = m.secure
			httpSession.Options.SameSite = http.SameSiteLaxMode
			if err := httpSession.Save(r, w); err != nil {
				m.logger.Error("failed to save session cookie", "error", err)
				http.Error(w, "Failed to create session", http.StatusInternalServerError)
				return
			}
		}

		ctx := context.WithValue(r.Context(), EngineKey, engine)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetEngine returns the session engine attached to the request, or nil
func GetEngine(r *http.Request) *session.Engine {
	engine, _ := r.Context().Value(EngineKey).(*session.Engine)
	return engine
}

// SetTestEngine attaches an engine to ctx (for testing purposes)
func SetTestEngine(ctx context.Context, engine *session.Engine) context.Context {
	return context.WithValue(ctx, EngineKey, engine)
}
