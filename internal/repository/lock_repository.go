package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/learnpulse/learnpulse/internal/model"
)

// mysqlDupEntry is the MySQL error number for a duplicate key on a
// unique or primary index. It is the signal that distinguishes "lock
// already held" from a genuine storage failure.
const mysqlDupEntry = 1062

// lockTokenBytes controls the length of the random owner token; 32
// bytes yields a 64 character hex string.
const lockTokenBytes = 32

// LockRepo provides the cluster-wide mutual exclusion primitive used to
// single-flight generation jobs. A job key is locked exactly when a row
// for it exists in generation_locks; the PRIMARY KEY on lock_key makes
// the insert atomic, so at most one concurrent Acquire can succeed.
//
// Every lock carries a lease (expires_at) and a random owner token. The
// lease bounds the damage of a holder that dies without releasing: the
// expired row is swept by the reaper, or lazily by the next Acquire of
// the same key. The token prevents a slow worker from releasing a lock
// that has since expired and been re-acquired by someone else.
type LockRepo struct {
	db  *sql.DB
	ttl time.Duration
}

// NewLockRepo returns a LockRepo bound to the given database. The ttl
// is the lease granted to each acquired lock and should comfortably
// exceed the longest expected generation job.
func NewLockRepo(db *sql.DB, ttl time.Duration) *LockRepo {
	return &LockRepo{db: db, ttl: ttl}
}

// Acquire attempts to take the lock for key. On success it returns the
// owner token and acquired=true. When the key is already held it
// returns acquired=false with a nil error: contention is the expected
// busy outcome, not a failure. Any other database error is returned
// as-is so callers never confuse "store unreachable" with "lock held".
func (r *LockRepo) Acquire(ctx context.Context, key string) (string, bool, error) {
	// Sweep a leftover expired row for this key so a crashed holder
	// does not block the key until the next reaper pass. The predicate
	// only matches expired rows, so this cannot steal a live lock.
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM generation_locks WHERE lock_key = ? AND expires_at <= UTC_TIMESTAMP()`,
		key,
	); err != nil {
		return "", false, err
	}
	token, err := randomToken(lockTokenBytes)
	if err != nil {
		return "", false, err
	}
	expires := time.Now().UTC().Add(r.ttl).Format("2006-01-02 15:04:05")
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO generation_locks (lock_key, owner_token, expires_at) VALUES (?, ?, ?)`,
		key, token, expires,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDupEntry {
			return "", false, nil
		}
		return "", false, err
	}
	return token, true, nil
}

// Release deletes the lock row for key, but only when the owner token
// matches. Releasing a key that is not held, or that has been expired
// and re-acquired under a new token, is a no-op and returns nil; only
// genuine storage errors are reported.
func (r *LockRepo) Release(ctx context.Context, key, token string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM generation_locks WHERE lock_key = ? AND owner_token = ?`,
		key, token,
	)
	return err
}

// Get returns the live lock row for key, or nil when the key is free or
// its lease has expired. Read-only: callers use it to report that a job
// is in flight, never to decide whether to start one.
func (r *LockRepo) Get(ctx context.Context, key string) (*model.GenerationLock, error) {
	const q = `SELECT lock_key, owner_token, expires_at, created_at
	           FROM generation_locks WHERE lock_key = ? AND expires_at > UTC_TIMESTAMP()`
	var l model.GenerationLock
	err := r.db.QueryRowContext(ctx, q, key).Scan(&l.LockKey, &l.OwnerToken, &l.ExpiresAt, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ExpireLocks removes every lock whose lease has passed and returns the
// number of rows swept. It is invoked periodically by the reaper
// goroutine started in main.
func (r *LockRepo) ExpireLocks(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM generation_locks WHERE expires_at <= UTC_TIMESTAMP()`,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// randomToken generates a random hexadecimal string of n bytes (2n hex
// characters). The underlying call to crypto/rand ensures
// cryptographically secure random bytes.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
