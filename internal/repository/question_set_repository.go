package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/learnpulse/learnpulse/internal/model"
)

// QuestionSetRepo provides data access to the question_sets table, the
// durable cache of generated quiz questions. One payload exists per
// (video, language) pair; a successful generation job writes it once
// and every later request is served from here.
type QuestionSetRepo struct {
	db *sql.DB
}

// NewQuestionSetRepo returns a QuestionSetRepo bound to the provided
// database.
func NewQuestionSetRepo(db *sql.DB) *QuestionSetRepo {
	return &QuestionSetRepo{db: db}
}

// Exists reports whether a question set is cached for the pair.
func (r *QuestionSetRepo) Exists(ctx context.Context, videoID, language string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM question_sets WHERE video_id = ? AND language = ?`,
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
// when generation has not completed for it yet.
func (r *QuestionSetRepo) Load(ctx context.Context, videoID, language string) (json.RawMessage, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM question_sets WHERE video_id = ? AND language = ?`,
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

// Store persists the generated payload for the pair. Upsert semantics
// keep the operation idempotent if a job is ever re-run for a pair that
// already has a cached result.
func (r *QuestionSetRepo) Store(ctx context.Context, videoID, language string, payload json.RawMessage) error {
	const q = `INSERT INTO question_sets (video_id, language, payload)
	           VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE payload = VALUES(payload)`
	_, err := r.db.ExecContext(ctx, q, videoID, language, []byte(payload))
	return err
}

// GetByPair returns the full record for a (video, language) pair.
func (r *QuestionSetRepo) GetByPair(ctx context.Context, videoID, language string) (*model.QuestionSet, error) {
	const q = `SELECT id, video_id, language, payload, created_at FROM question_sets WHERE video_id = ? AND language = ?`
	var qs model.QuestionSet
	var payload []byte
	err := r.db.QueryRowContext(ctx, q, videoID, language).Scan(&qs.ID, &qs.VideoID, &qs.Language, &payload, &qs.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	qs.Payload = json.RawMessage(payload)
	return &qs, nil
}
