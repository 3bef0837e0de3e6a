package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/learnpulse/learnpulse/internal/model"
	"github.com/learnpulse/learnpulse/internal/repository"
	"github.com/learnpulse/learnpulse/internal/ticket"
)

// The sequencer fakes mirror the MySQL stores' semantics: atomic
// counter advancement and a single ticket row per (video, session).

type memSubjects struct {
	mu       sync.Mutex
	nextMain map[string]uint64
	nextSub  map[string]uint64
	mainInc  int
}

func newMemSubjects() *memSubjects {
	return &memSubjects{nextMain: make(map[string]uint64), nextSub: make(map[string]uint64)}
}

func (m *memSubjects) key(ownerID uint64, videoID string) string {
	return videoID // single owner per test
}

func (m *memSubjects) IncrementMainTicket(_ context.Context, ownerID uint64, videoID string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mainInc++
	k := m.key(ownerID, videoID)
	if _, ok := m.nextMain[k]; !ok {
		m.nextMain[k] = 2
		m.nextSub[k] = 2
		return 1, nil
	}
	assigned := m.nextMain[k]
	m.nextMain[k]++
	m.nextSub[k] = 2
	return assigned, nil
}

func (m *memSubjects) IncrementSubTicket(_ context.Context, ownerID uint64, videoID string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(ownerID, videoID)
	if _, ok := m.nextSub[k]; !ok {
		return 0, repository.ErrSubjectNotFound
	}
	assigned := m.nextSub[k]
	m.nextSub[k]++
	return assigned, nil
}

func (m *memSubjects) mainIncrements() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mainInc
}

type memSessions struct {
	mu      sync.Mutex
	tickets map[string]model.SessionTicket
}

func newMemSessions() *memSessions {
	return &memSessions{tickets: make(map[string]model.SessionTicket)}
}

func (m *memSessions) Get(_ context.Context, videoID, sessionID string) (*model.SessionTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[videoID+"|"+sessionID]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	return &t, nil
}

func (m *memSessions) Upsert(_ context.Context, videoID, sessionID string, main, sub uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[videoID+"|"+sessionID] = model.SessionTicket{
		VideoID: videoID, SessionID: sessionID, MainTicket: main, SubTicket: sub,
	}
	return nil
}

func (m *memSessions) UpdateSub(_ context.Context, videoID, sessionID string, sub uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := videoID + "|" + sessionID
	t, ok := m.tickets[k]
	if !ok {
		return repository.ErrTicketNotFound
	}
	t.SubTicket = sub
	m.tickets[k] = t
	return nil
}

type memEvents struct {
	mu      sync.Mutex
	batches [][]model.WatchEvent
}

func (m *memEvents) InsertBatch(_ context.Context, events []model.WatchEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]model.WatchEvent, len(events))
	copy(cp, events)
	m.batches = append(m.batches, cp)
	return nil
}

type memPlayback struct {
	mu       sync.Mutex
	position float64
	updates  int
	fail     bool
}

func (m *memPlayback) UpdatePlayback(_ context.Context, ownerID uint64, videoID string, position float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("playback store down")
	}
	m.position = position
	m.updates++
	return nil
}

type recorderFixture struct {
	subjects *memSubjects
	sessions *memSessions
	events   *memEvents
	playback *memPlayback
	rec      *Recorder
}

func newRecorderFixture() *recorderFixture {
	f := &recorderFixture{
		subjects: newMemSubjects(),
		sessions: newMemSessions(),
		events:   &memEvents{},
		playback: &memPlayback{},
	}
	seq := ticket.NewSequencer(f.subjects, f.sessions)
	f.rec = NewRecorder(seq, f.events, f.playback, zerolog.Nop())
	return f
}

func sampleBatch(n int) []EventInput {
	now := time.Now().UTC()
	out := make([]EventInput, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, EventInput{
			Kind:       "progress",
			Position:   float64(10 * (i + 1)),
			OccurredAt: now.Add(time.Duration(i) * time.Second),
		})
	}
	return out
}

func TestLogBatchAssignsTicketToFreshSession(t *testing.T) {
	f := newRecorderFixture()

	pair, err := f.rec.LogBatch(context.Background(), 7, "sess-a", "vid1", sampleBatch(3))
	if err != nil {
		t.Fatalf("LogBatch: %v", err)
	}
	if pair != (ticket.Pair{Main: 1, Sub: 1}) {
		t.Fatalf("pair = %+v, want {1 1}", pair)
	}

	if len(f.events.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(f.events.batches))
	}
	for i, ev := range f.events.batches[0] {
		if ev.MainTicket != 1 || ev.SubTicket != 1 {
			t.Fatalf("event %d stamped {%d %d}, want {1 1}", i, ev.MainTicket, ev.SubTicket)
		}
		if ev.OwnerID != 7 || ev.VideoID != "vid1" || ev.SessionID != "sess-a" {
			t.Fatalf("event %d carries wrong identity: %+v", i, ev)
		}
	}

	if f.playback.position != 30 {
		t.Fatalf("playback position = %v, want last event's 30", f.playback.position)
	}
}

func TestLogBatchReusesExistingTicket(t *testing.T) {
	f := newRecorderFixture()
	ctx := context.Background()

	if _, err := f.rec.LogBatch(ctx, 7, "sess-a", "vid1", sampleBatch(2)); err != nil {
		t.Fatal(err)
	}
	incBefore := f.subjects.mainIncrements()

	pair, err := f.rec.LogBatch(ctx, 7, "sess-a", "vid1", sampleBatch(2))
	if err != nil {
		t.Fatalf("second LogBatch: %v", err)
	}
	if pair != (ticket.Pair{Main: 1, Sub: 1}) {
		t.Fatalf("pair = %+v, want the session's existing {1 1}", pair)
	}
	if got := f.subjects.mainIncrements(); got != incBefore {
		t.Fatalf("main counter advanced %d times during reuse, want 0", got-incBefore)
	}
}

func TestLogBatchRejectsEmptyBatch(t *testing.T) {
	f := newRecorderFixture()
	if _, err := f.rec.LogBatch(context.Background(), 7, "sess-a", "vid1", nil); err == nil {
		t.Fatal("expected an error for an empty batch")
	}
	if len(f.events.batches) != 0 {
		t.Fatal("empty batch must not insert events")
	}
}

func TestLogBatchToleratesPlaybackFailure(t *testing.T) {
	f := newRecorderFixture()
	f.playback.fail = true

	pair, err := f.rec.LogBatch(context.Background(), 7, "sess-a", "vid1", sampleBatch(2))
	if err != nil {
		t.Fatalf("LogBatch should tolerate playback store failure, got %v", err)
	}
	if pair != (ticket.Pair{Main: 1, Sub: 1}) {
		t.Fatalf("pair = %+v, want {1 1}", pair)
	}
	if len(f.events.batches) != 1 {
		t.Fatal("events must still be durable when playback update fails")
	}
}
