package model

import "time"

// GenerationLock represents an exclusive claim on one generation job,
// backed by the uniqueness of generation_locks.lock_key.  While a row
// exists for a key, that job is running somewhere in the cluster and no
// other process may start it.  Locks carry a lease so that a crashed
// holder cannot block a key forever: the reaper removes rows whose
// expires_at has passed.
//
// Fields:
//  LockKey    – derived string identifying the job (video, language, kind).
//  OwnerToken – random token returned on acquire and required on release.
//  ExpiresAt  – lease expiry; expired rows are swept and re-acquirable.
//  CreatedAt  – when the lock was acquired.
type GenerationLock struct {
	LockKey    string    // generation_locks.lock_key
	OwnerToken string    // generation_locks.owner_token
	ExpiresAt  time.Time // generation_locks.expires_at
	CreatedAt  time.Time // generation_locks.created_at
}
