package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"Feedsync/internal/metrics"
)

// DefaultQueueSize bounds the events waiting to be written
const DefaultQueueSize = 1024

const writeTimeout = 5 * time.Second

// Repository persists analytics events
type Repository interface {
	InsertEvent(ctx context.Context, ev Event) error
}

// AsyncLogger hands events to a single writer goroutine so a slow
// repository never blocks a card action. Events are dropped when the queue
// is full.
type AsyncLogger struct {
	repo   Repository
	events chan Event
	logger *slog.Logger
	now    func() time.Time
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewAsyncLogger starts the writer. Close must be called to flush it.
func NewAsyncLogger(repo Repository, queueSize int, logger *slog.Logger) *AsyncLogger {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	l := &AsyncLogger{
		repo:   repo,
		events: make(chan Event, queueSize),
		logger: logger.With("component", "analytics_writer"),
		now:    func() time.Time { return time.Now().UTC() },
	}

	l.wg.Add(1)
	go l.run()

	return l
}

// LogEvent queues ev for writing
func (l *AsyncLogger) LogEvent(_ context.Context, ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = l.now()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}

	select {
	case l.events <- ev:
	default:
		metrics.AnalyticsDropped.Inc()
		l.logger.Warn("analytics queue full, dropping event", "event", ev.Name, "target_id", ev.TargetID)
	}
}

// Close stops accepting events and waits for the queued ones to be written
func (l *AsyncLogger) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.events)
	l.mu.Unlock()

	l.wg.Wait()
}

func (l *AsyncLogger) run() {
	defer l.wg.Done()

	for ev := range l.events {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := l.repo.InsertEvent(ctx, ev); err != nil {
			l.logger.Error("failed to write analytics event", "event", ev.Name, "error", err)
		}
		cancel()
	}
}
