// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// ticket sequencer and the generation orchestrator to distinguish
// between different failure scenarios. For example, ErrSubjectNotFound
// tells the sequencer that a counter row has to be created lazily,
// while a plain storage error must be propagated because treating it
// as "row absent" could issue a duplicate ticket.
package repository

import "errors"

// ErrSubjectNotFound is returned when a counter operation targets a
// (owner, video) pair that has no watch_subjects row yet. Callers are
// expected to create the row and retry rather than report a failure.
var ErrSubjectNotFound = errors.New("watch subject not found")

// ErrTicketNotFound is returned when no session ticket exists for a
// (video, session) pair. The sequencer treats this as the bootstrap
// case and assigns a fresh main ticket.
var ErrTicketNotFound = errors.New("session ticket not found")

// ErrResultNotFound is returned when no generated result is cached for
// a (video, language) pair. The orchestrator treats this as a cache
// miss and starts a generation job.
var ErrResultNotFound = errors.New("generated result not found")
