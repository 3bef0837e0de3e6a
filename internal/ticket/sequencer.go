// Package ticket assigns the main/sub ticket pairs that order telemetry
// batches for a (viewer, video) subject. Main tickets number viewing
// episodes; sub tickets number batches inside an episode. Both counters
// live in the shared store and are advanced with atomic
// update-and-return-old-value operations, so assignment stays gap-free
// and duplicate-free across concurrent sessions and across independent
// server processes.
package ticket

import (
	"context"
	"errors"

	"github.com/learnpulse/learnpulse/internal/model"
	"github.com/learnpulse/learnpulse/internal/repository"
)

// Pair is one issued (main, sub) ticket combination.
type Pair struct {
	Main uint64 `json:"main_ticket"`
	Sub  uint64 `json:"sub_ticket"`
}

// SubjectStore is the counter side of the sequencer: per-subject
// fetch-and-increment operations. Implementations must be atomic; a
// separate read followed by a write would lose updates under
// concurrency. The MySQL implementation is repository.WatchSubjectRepo.
type SubjectStore interface {
	// IncrementMainTicket assigns and returns the next main ticket for
	// the subject, resetting the sub counter, creating the subject
	// lazily when absent.
	IncrementMainTicket(ctx context.Context, ownerID uint64, videoID string) (uint64, error)
	// IncrementSubTicket assigns and returns the next sub ticket for
	// the subject. Returns repository.ErrSubjectNotFound when the
	// subject row does not exist.
	IncrementSubTicket(ctx context.Context, ownerID uint64, videoID string) (uint64, error)
}

// SessionStore is the session side of the sequencer: which ticket pair
// each (video, session) currently carries. The MySQL implementation is
// repository.SessionTicketRepo.
type SessionStore interface {
	// Get returns the session's current ticket or
	// repository.ErrTicketNotFound.
	Get(ctx context.Context, videoID, sessionID string) (*model.SessionTicket, error)
	// Upsert creates or overwrites the session's ticket row.
	Upsert(ctx context.Context, videoID, sessionID string, main, sub uint64) error
	// UpdateSub rewrites only the sub ticket of an existing row.
	UpdateSub(ctx context.Context, videoID, sessionID string, sub uint64) error
}

// Sequencer composes the two stores into the ticket assignment
// contract used by telemetry ingestion.
type Sequencer struct {
	subjects SubjectStore
	sessions SessionStore
}

// NewSequencer returns a Sequencer over the given stores.
func NewSequencer(subjects SubjectStore, sessions SessionStore) *Sequencer {
	return &Sequencer{subjects: subjects, sessions: sessions}
}

// NextMainTicket opens a new viewing episode for the subject and binds
// the session to it. The assigned pair is {m, 1} where m is the
// pre-increment main counter; the subject's post-state counters are
// {m+1, 2}. The session ticket row is always rewritten to the assigned
// pair, detaching the session from any earlier episode.
func (s *Sequencer) NextMainTicket(ctx context.Context, ownerID uint64, videoID, sessionID string) (Pair, error) {
	main, err := s.subjects.IncrementMainTicket(ctx, ownerID, videoID)
	if err != nil {
		return Pair{}, err
	}
	pair := Pair{Main: main, Sub: 1}
	if err := s.sessions.Upsert(ctx, videoID, sessionID, pair.Main, pair.Sub); err != nil {
		return Pair{}, err
	}
	return pair, nil
}

// NextSubTicket advances the session to the next sub ticket while
// keeping its main ticket fixed. A session with no ticket state yet
// behaves exactly like NextMainTicket, so the very first pair a session
// can observe is always {1, 1} regardless of which call bootstrapped
// it. Sub tickets are scoped to the subject, not the session: two
// concurrent sessions sharing an episode observe interleaved but
// strictly increasing sub values.
func (s *Sequencer) NextSubTicket(ctx context.Context, ownerID uint64, videoID, sessionID string) (Pair, error) {
	current, err := s.sessions.Get(ctx, videoID, sessionID)
	if errors.Is(err, repository.ErrTicketNotFound) {
		return s.NextMainTicket(ctx, ownerID, videoID, sessionID)
	}
	if err != nil {
		return Pair{}, err
	}
	sub, err := s.subjects.IncrementSubTicket(ctx, ownerID, videoID)
	if errors.Is(err, repository.ErrSubjectNotFound) {
		// Session ticket exists but the counter row is gone; treat as
		// a fresh bootstrap rather than failing the batch.
		return s.NextMainTicket(ctx, ownerID, videoID, sessionID)
	}
	if err != nil {
		return Pair{}, err
	}
	if err := s.sessions.UpdateSub(ctx, videoID, sessionID, sub); err != nil {
		return Pair{}, err
	}
	return Pair{Main: current.MainTicket, Sub: sub}, nil
}

// CurrentTickets returns the pair currently assigned to the session, or
// ok=false when the session has no ticket state for the video.
func (s *Sequencer) CurrentTickets(ctx context.Context, videoID, sessionID string) (Pair, bool, error) {
	t, err := s.sessions.Get(ctx, videoID, sessionID)
	if errors.Is(err, repository.ErrTicketNotFound) {
		return Pair{}, false, nil
	}
	if err != nil {
		return Pair{}, false, err
	}
	return Pair{Main: t.MainTicket, Sub: t.SubTicket}, true, nil
}
