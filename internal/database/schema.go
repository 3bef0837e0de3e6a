package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements creates the tables this service owns.  The DDL is the
// contract the repositories rely on: the PRIMARY KEY on
// generation_locks.lock_key is what makes lock acquisition atomic, and
// the unique keys on watch_subjects and session_tickets are what make
// counter updates and ticket upserts hit exactly one row.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS generation_locks (
		lock_key    VARCHAR(191) NOT NULL,
		owner_token CHAR(64)     NOT NULL,
		expires_at  DATETIME     NOT NULL,
		created_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (lock_key),
		KEY idx_generation_locks_expires (expires_at)
	)`,
	`CREATE TABLE IF NOT EXISTS watch_subjects (
		id                BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		owner_id          BIGINT UNSIGNED NOT NULL,
		video_id          VARCHAR(64)     NOT NULL,
		next_main_ticket  INT UNSIGNED    NOT NULL DEFAULT 1,
		next_sub_ticket   INT UNSIGNED    NOT NULL DEFAULT 1,
		playback_position DOUBLE          NOT NULL DEFAULT 0,
		updated_at        TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_watch_subjects_owner_video (owner_id, video_id)
	)`,
	`CREATE TABLE IF NOT EXISTS session_tickets (
		video_id    VARCHAR(64)  NOT NULL,
		session_id  VARCHAR(128) NOT NULL,
		main_ticket INT UNSIGNED NOT NULL,
		sub_ticket  INT UNSIGNED NOT NULL,
		PRIMARY KEY (video_id, session_id)
	)`,
	`CREATE TABLE IF NOT EXISTS watch_events (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		owner_id    BIGINT UNSIGNED NOT NULL,
		video_id    VARCHAR(64)     NOT NULL,
		session_id  VARCHAR(128)    NOT NULL,
		main_ticket INT UNSIGNED    NOT NULL,
		sub_ticket  INT UNSIGNED    NOT NULL,
		kind        VARCHAR(32)     NOT NULL,
		position    DOUBLE          NOT NULL,
		occurred_at DATETIME        NOT NULL,
		created_at  TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_watch_events_subject (owner_id, video_id, main_ticket, sub_ticket)
	)`,
	`CREATE TABLE IF NOT EXISTS question_sets (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		video_id   VARCHAR(64)     NOT NULL,
		language   VARCHAR(16)     NOT NULL,
		payload    JSON            NOT NULL,
		created_at TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_question_sets_video_lang (video_id, language)
	)`,
	`CREATE TABLE IF NOT EXISTS summaries (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		video_id   VARCHAR(64)     NOT NULL,
		language   VARCHAR(16)     NOT NULL,
		payload    JSON            NOT NULL,
		created_at TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_summaries_video_lang (video_id, language)
	)`,
}

// EnsureSchema creates any missing tables.  It runs at startup so a
// fresh database is usable without a separate migration step; existing
// tables are left untouched.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
