package analytics

import (
	"context"
	"log/slog"
	"time"
)

// Event names
const (
	EventVotePoll = "vote poll"
	EventUpvote   = "upvote post"
	EventDownvote = "downvote post"
	EventUnvote   = "remove post vote"
	EventBookmark = "bookmark post"
	EventCopyLink = "copy post link"
)

// Event is one product analytics record
type Event struct {
	OccurredAt time.Time
	Extra      map[string]any
	Name       string
	TargetID   string
	FeedName   string
}

// Logger records analytics events
type Logger interface {
	LogEvent(ctx context.Context, ev Event)
}

// SlogLogger writes analytics events as structured log lines
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates an analytics logger writing to logger
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger.With("component", "analytics")}
}

// LogEvent writes ev at info level
func (l *SlogLogger) LogEvent(ctx context.Context, ev Event) {
	attrs := []any{"event", ev.Name, "target_id", ev.TargetID}
	if ev.FeedName != "" {
		attrs = append(attrs, "feed", ev.FeedName)
	}
	if len(ev.Extra) > 0 {
		attrs = append(attrs, "extra", ev.Extra)
	}
	l.logger.InfoContext(ctx, "analytics event", attrs...)
}

// Nop discards events
type Nop struct{}

func (Nop) LogEvent(context.Context, Event) {}

// Multi sends every event to each of its loggers in order
type Multi []Logger

func (m Multi) LogEvent(ctx context.Context, ev Event) {
	for _, l := range m {
		l.LogEvent(ctx, ev)
	}
}
