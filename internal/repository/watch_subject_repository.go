package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/learnpulse/learnpulse/internal/model"
)

// WatchSubjectRepo provides data access to the watch_subjects table,
// which owns the ticket counters for every (owner, video) pair. The
// counters are advanced with single UPDATE statements using MySQL's
// LAST_INSERT_ID(expr) so that the old value travels back in the OK
// packet; there is never a separate read followed by a write, which is
// what makes concurrent ticket assignment lose no updates even across
// independent server processes.
type WatchSubjectRepo struct {
	db *sql.DB
}

// NewWatchSubjectRepo returns a WatchSubjectRepo bound to the provided
// database.
func NewWatchSubjectRepo(db *sql.DB) *WatchSubjectRepo {
	return &WatchSubjectRepo{db: db}
}

// IncrementMainTicket atomically assigns the next main ticket for the
// subject and returns the assigned value. The sub counter is reset so
// that the first sub ticket under the new main ticket is 1 and the next
// unissued one is 2. When no subject row exists yet it is created
// lazily with the post-assignment counters {2, 2} and the assigned main
// ticket is 1. A create that loses the insert race to a concurrent
// caller falls back to the update path, so every caller still receives
// a distinct value.
func (r *WatchSubjectRepo) IncrementMainTicket(ctx context.Context, ownerID uint64, videoID string) (uint64, error) {
	for {
		res, err := r.db.ExecContext(ctx,
			`UPDATE watch_subjects
			 SET next_main_ticket = LAST_INSERT_ID(next_main_ticket) + 1,
			     next_sub_ticket = 2,
			     updated_at = UTC_TIMESTAMP()
			 WHERE owner_id = ? AND video_id = ?`,
			ownerID, videoID,
		)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err != nil {
			return 0, err
		} else if n > 0 {
			assigned, err := res.LastInsertId()
			if err != nil {
				return 0, err
			}
			return uint64(assigned), nil
		}
		// No row yet: create it with counters already advanced past the
		// assigned {main=1, sub=1} pair.
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO watch_subjects (owner_id, video_id, next_main_ticket, next_sub_ticket) VALUES (?, ?, 2, 2)`,
			ownerID, videoID,
		)
		if err == nil {
			return 1, nil
		}
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDupEntry {
			// Lost the creation race; the row exists now, take the
			// update path.
			continue
		}
		return 0, err
	}
}

// IncrementSubTicket atomically assigns the next sub ticket for the
// subject and returns the assigned (pre-increment) value. The main
// counter is untouched. It returns ErrSubjectNotFound when no subject
// row exists; callers should bootstrap via IncrementMainTicket instead.
func (r *WatchSubjectRepo) IncrementSubTicket(ctx context.Context, ownerID uint64, videoID string) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE watch_subjects
		 SET next_sub_ticket = LAST_INSERT_ID(next_sub_ticket) + 1,
		     updated_at = UTC_TIMESTAMP()
		 WHERE owner_id = ? AND video_id = ?`,
		ownerID, videoID,
	)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, err
	} else if n == 0 {
		return 0, ErrSubjectNotFound
	}
	assigned, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(assigned), nil
}

// GetByOwnerVideo loads the subject row for a (owner, video) pair, or
// ErrSubjectNotFound when no telemetry has created it yet.
func (r *WatchSubjectRepo) GetByOwnerVideo(ctx context.Context, ownerID uint64, videoID string) (*model.WatchSubject, error) {
	const q = `SELECT id, owner_id, video_id, next_main_ticket, next_sub_ticket, playback_position, updated_at
	           FROM watch_subjects WHERE owner_id = ? AND video_id = ?`
	var s model.WatchSubject
	err := r.db.QueryRowContext(ctx, q, ownerID, videoID).Scan(
		&s.ID, &s.OwnerID, &s.VideoID, &s.NextMainTicket, &s.NextSubTicket, &s.PlaybackPosition, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdatePlayback records the subject's most recent playback position.
// A missing subject row is not an error here; the position will be
// written once telemetry ingestion has created the row.
func (r *WatchSubjectRepo) UpdatePlayback(ctx context.Context, ownerID uint64, videoID string, position float64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE watch_subjects SET playback_position = ?, updated_at = UTC_TIMESTAMP() WHERE owner_id = ? AND video_id = ?`,
		position, ownerID, videoID,
	)
	return err
}
