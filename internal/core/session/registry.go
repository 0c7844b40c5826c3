package session

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"Feedsync/internal/metrics"
)

const (
	DefaultMaxSessions = 10000
	DefaultTTL         = 30 * time.Minute
)

// Factory builds the engine for a new session id
type Factory func(id string) (*Engine, error)

// Registry keeps one engine per browser session. Sessions idle longer than
// the TTL, or pushed out by newer ones, are closed.
type Registry struct {
	engines *expirable.LRU[string, *Engine]
	factory Factory
	logger  *slog.Logger
}

// NewRegistry creates a registry holding at most maxSessions engines
func NewRegistry(maxSessions int, ttl time.Duration, factory Factory, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	r := &Registry{
		factory: factory,
		logger:  logger,
	}
	r.engines = expirable.NewLRU[string, *Engine](maxSessions, func(id string, engine *Engine) {
		if engine.IsClosed() {
			return
		}
		engine.Close()
		metrics.ActiveSessions.Dec()
		r.logger.Debug("session evicted", "session", id)
	}, ttl)
	return r
}

// Get returns the engine for id and restarts its TTL
func (r *Registry) Get(id string) (*Engine, bool) {
	if id == "" {
		return nil, false
	}
	engine, ok := r.engines.Get(id)
	if !ok {
		return nil, false
	}
	// expirable entries keep the deadline of their last Add
	r.engines.Add(id, engine)
	// the janitor may have evicted and closed the engine before the Add put it back
	if engine.IsClosed() {
		r.engines.Remove(id)
		return nil, false
	}
	return engine, true
}

// Create starts a new session with a fresh id
func (r *Registry) Create() (*Engine, error) {
	id := uuid.NewString()
	engine, err := r.factory(id)
	if err != nil {
		return nil, err
	}
	r.engines.Add(id, engine)
	metrics.ActiveSessions.Inc()
	r.logger.Info("session created", "session", id)
	return engine, nil
}

// GetOrCreate returns the engine for id, starting a new session when id is
// empty, unknown or expired. created reports whether a new id was issued.
func (r *Registry) GetOrCreate(id string) (engine *Engine, created bool, err error) {
	if engine, ok := r.Get(id); ok {
		return engine, false, nil
	}
	engine, err = r.Create()
	if err != nil {
		return nil, false, err
	}
	return engine, true, nil
}

// Remove closes and forgets a session
func (r *Registry) Remove(id string) bool {
	return r.engines.Remove(id)
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	return r.engines.Len()
}

// Close closes every session
func (r *Registry) Close() {
	r.engines.Purge()
}
