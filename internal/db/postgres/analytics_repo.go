package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"Feedsync/internal/core/analytics"
)

type postgresAnalyticsRepo struct {
	db *sql.DB
}

// NewAnalyticsRepository creates a new PostgreSQL analytics repository
func NewAnalyticsRepository(db *sql.DB) analytics.Repository {
	return &postgresAnalyticsRepo{db: db}
}

// InsertEvent appends one event. Events are never updated.
func (r *postgresAnalyticsRepo) InsertEvent(ctx context.Context, ev analytics.Event) error {
	query := `
		INSERT INTO analytics_events (
			name, target_id, feed_name, extra, occurred_at
		) VALUES (
			$1, $2, NULLIF($3, ''), $4, $5
		)
	`

	var extra []byte
	if len(ev.Extra) > 0 {
		var err error
		extra, err = json.Marshal(ev.Extra)
		if err != nil {
			return fmt.Errorf("failed to encode event extra: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx, query,
		ev.Name, ev.TargetID, ev.FeedName, nullableJSON(extra), ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to insert analytics event: %w", err)
	}

	return nil
}

// nullableJSON stores an absent payload as NULL rather than an empty string
func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
