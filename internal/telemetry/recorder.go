// Package telemetry ingests batched playback events. A batch is the
// unit of ordering: its ticket pair is resolved exactly once and every
// event is stamped with that pair, so retried or overlapping client
// sessions can always be put back in order without each event paying a
// round trip to the sequencer.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/learnpulse/learnpulse/internal/model"
	"github.com/learnpulse/learnpulse/internal/ticket"
)

// EventInput is one telemetry sample as submitted by the client, before
// ticket stamping.
type EventInput struct {
	Kind       string
	Position   float64
	OccurredAt time.Time
}

// EventStore persists stamped event batches. The MySQL implementation
// is repository.WatchEventRepo.
type EventStore interface {
	InsertBatch(ctx context.Context, events []model.WatchEvent) error
}

// PlaybackStore records the subject's latest playback position. The
// MySQL implementation is repository.WatchSubjectRepo.
type PlaybackStore interface {
	UpdatePlayback(ctx context.Context, ownerID uint64, videoID string, position float64) error
}

// Recorder stamps and persists telemetry batches.
type Recorder struct {
	seq      *ticket.Sequencer
	events   EventStore
	playback PlaybackStore
	log      zerolog.Logger
}

// NewRecorder wires a Recorder.
func NewRecorder(seq *ticket.Sequencer, events EventStore, playback PlaybackStore, log zerolog.Logger) *Recorder {
	if seq == nil || events == nil || playback == nil {
		panic("nil dependency passed to NewRecorder")
	}
	return &Recorder{seq: seq, events: events, playback: playback, log: log}
}

// LogBatch resolves the session's current ticket pair (assigning a
// fresh main ticket when the session has none), stamps every event in
// the batch with it, appends the batch, and advances the subject's
// playback position to the last event's position. It returns the pair
// the batch was stamped with.
func (r *Recorder) LogBatch(ctx context.Context, ownerID uint64, sessionID, videoID string, inputs []EventInput) (ticket.Pair, error) {
	if len(inputs) == 0 {
		return ticket.Pair{}, fmt.Errorf("empty telemetry batch")
	}

	pair, ok, err := r.seq.CurrentTickets(ctx, videoID, sessionID)
	if err != nil {
		return ticket.Pair{}, fmt.Errorf("resolve ticket: %w", err)
	}
	if !ok {
		pair, err = r.seq.NextMainTicket(ctx, ownerID, videoID, sessionID)
		if err != nil {
			return ticket.Pair{}, fmt.Errorf("assign ticket: %w", err)
		}
	}

	events := make([]model.WatchEvent, 0, len(inputs))
	for _, in := range inputs {
		events = append(events, model.WatchEvent{
			OwnerID:    ownerID,
			VideoID:    videoID,
			SessionID:  sessionID,
			MainTicket: pair.Main,
			SubTicket:  pair.Sub,
			Kind:       in.Kind,
			Position:   in.Position,
			OccurredAt: in.OccurredAt,
		})
	}
	if err := r.events.InsertBatch(ctx, events); err != nil {
		return ticket.Pair{}, fmt.Errorf("insert events: %w", err)
	}

	last := inputs[len(inputs)-1]
	if err := r.playback.UpdatePlayback(ctx, ownerID, videoID, last.Position); err != nil {
		// The batch itself is durable; a stale playback position will
		// heal on the next batch.
		r.log.Warn().Err(err).Uint64("owner_id", ownerID).Str("video_id", videoID).Msg("update playback position failed")
	}
	return pair, nil
}
