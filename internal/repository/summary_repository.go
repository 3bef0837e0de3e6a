package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/learnpulse/learnpulse/internal/model"
)

// SummaryRepo provides data access to the summaries table, the durable
// cache of generated video summaries keyed by (video, language). It
// mirrors QuestionSetRepo; the two job kinds never share a row or a
// lock key, so they are cached independently.
type SummaryRepo struct {
	db *sql.DB
}

// NewSummaryRepo returns a SummaryRepo bound to the provided database.
func NewSummaryRepo(db *sql.DB) *SummaryRepo {
	return &SummaryRepo{db: db}
}

// Exists reports whether a summary is cached for the pair.
func (r *SummaryRepo) Exists(ctx context.Context, videoID, language string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM summaries WHERE video_id = ? AND language = ?`,
		videoID, language,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Load returns the cached payload for the pair, or ErrResultNotFound
// when no summary has been generated for it yet.
func (r *SummaryRepo) Load(ctx context.Context, videoID, language string) (json.RawMessage, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM summaries WHERE video_id = ? AND language = ?`,
		videoID, language,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(payload), nil
}

// Store persists the generated summary for the pair with upsert
// semantics.
func (r *SummaryRepo) Store(ctx context.Context, videoID, language string, payload json.RawMessage) error {
	const q = `INSERT INTO summaries (video_id, language, payload)
	           VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE payload = VALUES(payload)`
	_, err := r.db.ExecContext(ctx, q, videoID, language, []byte(payload))
	return err
}

// GetByPair returns the full record for a (video, language) pair.
func (r *SummaryRepo) GetByPair(ctx context.Context, videoID, language string) (*model.Summary, error) {
	const q = `SELECT id, video_id, language, payload, created_at FROM summaries WHERE video_id = ? AND language = ?`
	var s model.Summary
	var payload []byte
	err := r.db.QueryRowContext(ctx, q, videoID, language).Scan(&s.ID, &s.VideoID, &s.Language, &payload, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Payload = json.RawMessage(payload)
	return &s, nil
}
