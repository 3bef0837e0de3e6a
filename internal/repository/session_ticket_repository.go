package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/learnpulse/learnpulse/internal/model"
)

// SessionTicketRepo provides data access to the session_tickets table.
// One row records the ticket pair currently in effect for a
// (video, session) pair; the unique key on those two columns plus
// upsert semantics guarantee at most one row per key.
type SessionTicketRepo struct {
	db *sql.DB
}

// NewSessionTicketRepo returns a SessionTicketRepo bound to the
// provided database.
func NewSessionTicketRepo(db *sql.DB) *SessionTicketRepo {
	return &SessionTicketRepo{db: db}
}

// Get loads the ticket currently assigned to the session for the given
// video. It returns ErrTicketNotFound when the session has not been
// assigned a ticket yet.
func (r *SessionTicketRepo) Get(ctx context.Context, videoID, sessionID string) (*model.SessionTicket, error) {
	const q = `SELECT video_id, session_id, main_ticket, sub_ticket FROM session_tickets WHERE video_id = ? AND session_id = ?`
	var t model.SessionTicket
	err := r.db.QueryRowContext(ctx, q, videoID, sessionID).Scan(&t.VideoID, &t.SessionID, &t.MainTicket, &t.SubTicket)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert creates or overwrites the session's ticket row with the given
// pair. It is called whenever a session is assigned a new main ticket.
func (r *SessionTicketRepo) Upsert(ctx context.Context, videoID, sessionID string, main, sub uint64) error {
	const q = `INSERT INTO session_tickets (video_id, session_id, main_ticket, sub_ticket)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE main_ticket = VALUES(main_ticket), sub_ticket = VALUES(sub_ticket)`
	_, err := r.db.ExecContext(ctx, q, videoID, sessionID, main, sub)
	return err
}

// UpdateSub advances only the sub ticket of an existing session ticket;
// the main ticket never changes through this path.
func (r *SessionTicketRepo) UpdateSub(ctx context.Context, videoID, sessionID string, sub uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE session_tickets SET sub_ticket = ? WHERE video_id = ? AND session_id = ?`,
		sub, videoID, sessionID,
	)
	return err
}
