package repository

import (
	"context"
	"database/sql"

	"github.com/learnpulse/learnpulse/internal/model"
)

// WatchEventRepo provides data access to the watch_events table, the
// append-only log of playback telemetry. Events are written in batches
// with a single multi-row INSERT so a batch lands atomically.
type WatchEventRepo struct {
	db *sql.DB
}

// NewWatchEventRepo returns a WatchEventRepo bound to the provided
// database.
func NewWatchEventRepo(db *sql.DB) *WatchEventRepo {
	return &WatchEventRepo{db: db}
}

// InsertBatch appends all events in one statement. Every event is
// expected to carry the same ticket pair, stamped by the caller before
// insertion. Passing an empty slice has no effect and returns nil.
func (r *WatchEventRepo) InsertBatch(ctx context.Context, events []model.WatchEvent) error {
	if len(events) == 0 {
		return nil
	}
	query := `INSERT INTO watch_events (owner_id, video_id, session_id, main_ticket, sub_ticket, kind, position, occurred_at) VALUES `
	args := make([]interface{}, 0, len(events)*8)
	for i, ev := range events {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args,
			ev.OwnerID, ev.VideoID, ev.SessionID,
			ev.MainTicket, ev.SubTicket,
			ev.Kind, ev.Position,
			ev.OccurredAt.UTC().Format("2006-01-02 15:04:05"),
		)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// CountBySubject returns how many events have been recorded for a
// (owner, video) pair. Used by operational endpoints and tests.
func (r *WatchEventRepo) CountBySubject(ctx context.Context, ownerID uint64, videoID string) (uint64, error) {
	var n uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM watch_events WHERE owner_id = ? AND video_id = ?`,
		ownerID, videoID,
	).Scan(&n)
	return n, err
}
