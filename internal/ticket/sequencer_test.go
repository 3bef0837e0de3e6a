package ticket

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/learnpulse/learnpulse/internal/model"
	"github.com/learnpulse/learnpulse/internal/repository"
)

// memSubjects implements SubjectStore with the same atomic
// fetch-and-increment semantics as the MySQL repository.
type memSubjects struct {
	mu       sync.Mutex
	counters map[string]*subjectCounters
}

type subjectCounters struct {
	nextMain uint64
	nextSub  uint64
}

func newMemSubjects() *memSubjects {
	return &memSubjects{counters: make(map[string]*subjectCounters)}
}

func subjectKey(ownerID uint64, videoID string) string {
	return fmt.Sprintf("%d|%s", ownerID, videoID)
}

func (m *memSubjects) IncrementMainTicket(_ context.Context, ownerID uint64, videoID string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := subjectKey(ownerID, videoID)
	st, ok := m.counters[key]
	if !ok {
		m.counters[key] = &subjectCounters{nextMain: 2, nextSub: 2}
		return 1, nil
	}
	assigned := st.nextMain
	st.nextMain++
	st.nextSub = 2
	return assigned, nil
}

func (m *memSubjects) IncrementSubTicket(_ context.Context, ownerID uint64, videoID string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.counters[subjectKey(ownerID, videoID)]
	if !ok {
		return 0, repository.ErrSubjectNotFound
	}
	assigned := st.nextSub
	st.nextSub++
	return assigned, nil
}

func (m *memSubjects) state(ownerID uint64, videoID string) (uint64, uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.counters[subjectKey(ownerID, videoID)]
	if !ok {
		return 0, 0, false
	}
	return st.nextMain, st.nextSub, true
}

// memSessions implements SessionStore over a map.
type memSessions struct {
	mu      sync.Mutex
	tickets map[string]model.SessionTicket
}

func newMemSessions() *memSessions {
	return &memSessions{tickets: make(map[string]model.SessionTicket)}
}

func sessionKey(videoID, sessionID string) string { return videoID + "|" + sessionID }

func (m *memSessions) Get(_ context.Context, videoID, sessionID string) (*model.SessionTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[sessionKey(videoID, sessionID)]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	return &t, nil
}

func (m *memSessions) Upsert(_ context.Context, videoID, sessionID string, main, sub uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[sessionKey(videoID, sessionID)] = model.SessionTicket{
		VideoID:    videoID,
		SessionID:  sessionID,
		MainTicket: main,
		SubTicket:  sub,
	}
	return nil
}

func (m *memSessions) UpdateSub(_ context.Context, videoID, sessionID string, sub uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey(videoID, sessionID)
	t, ok := m.tickets[key]
	if !ok {
		return repository.ErrTicketNotFound
	}
	t.SubTicket = sub
	m.tickets[key] = t
	return nil
}

func newTestSequencer() (*Sequencer, *memSubjects, *memSessions) {
	subjects := newMemSubjects()
	sessions := newMemSessions()
	return NewSequencer(subjects, sessions), subjects, sessions
}

func TestNextMainTicketAssignsAndAdvances(t *testing.T) {
	seq, subjects, _ := newTestSequencer()
	ctx := context.Background()

	pair, err := seq.NextMainTicket(ctx, 7, "vid1", "sess-a")
	if err != nil {
		t.Fatalf("NextMainTicket: %v", err)
	}
	if pair != (Pair{Main: 1, Sub: 1}) {
		t.Fatalf("first pair = %+v, want {1 1}", pair)
	}
	if nm, ns, ok := subjects.state(7, "vid1"); !ok || nm != 2 || ns != 2 {
		t.Fatalf("post-state = {%d %d}, want {2 2}", nm, ns)
	}

	pair, err = seq.NextMainTicket(ctx, 7, "vid1", "sess-b")
	if err != nil {
		t.Fatalf("second NextMainTicket: %v", err)
	}
	if pair != (Pair{Main: 2, Sub: 1}) {
		t.Fatalf("second pair = %+v, want {2 1}", pair)
	}
	if nm, ns, ok := subjects.state(7, "vid1"); !ok || nm != 3 || ns != 2 {
		t.Fatalf("post-state = {%d %d}, want {3 2}", nm, ns)
	}
}

func TestNextSubTicketKeepsMainFixed(t *testing.T) {
	seq, _, _ := newTestSequencer()
	ctx := context.Background()

	if _, err := seq.NextMainTicket(ctx, 7, "vid1", "sess-a"); err != nil {
		t.Fatal(err)
	}

	pair, err := seq.NextSubTicket(ctx, 7, "vid1", "sess-a")
	if err != nil {
		t.Fatalf("NextSubTicket: %v", err)
	}
	if pair != (Pair{Main: 1, Sub: 2}) {
		t.Fatalf("pair = %+v, want {1 2}", pair)
	}

	pair, err = seq.NextSubTicket(ctx, 7, "vid1", "sess-a")
	if err != nil {
		t.Fatalf("second NextSubTicket: %v", err)
	}
	if pair != (Pair{Main: 1, Sub: 3}) {
		t.Fatalf("pair = %+v, want {1 3}", pair)
	}
}

func TestNextSubTicketBootstrapsLikeMain(t *testing.T) {
	t.Run("no ticket state at all", func(t *testing.T) {
		seq, _, _ := newTestSequencer()
		pair, err := seq.NextSubTicket(context.Background(), 7, "vid1", "sess-a")
		if err != nil {
			t.Fatalf("NextSubTicket: %v", err)
		}
		if pair != (Pair{Main: 1, Sub: 1}) {
			t.Fatalf("bootstrap pair = %+v, want {1 1}", pair)
		}
	})

	t.Run("ticket row without subject row", func(t *testing.T) {
		seq, _, sessions := newTestSequencer()
		ctx := context.Background()
		if err := sessions.Upsert(ctx, "vid1", "sess-a", 5, 3); err != nil {
			t.Fatal(err)
		}
		pair, err := seq.NextSubTicket(ctx, 7, "vid1", "sess-a")
		if err != nil {
			t.Fatalf("NextSubTicket: %v", err)
		}
		if pair != (Pair{Main: 1, Sub: 1}) {
			t.Fatalf("recovered pair = %+v, want fresh {1 1}", pair)
		}
	})
}

func TestCurrentTickets(t *testing.T) {
	seq, _, _ := newTestSequencer()
	ctx := context.Background()

	if _, ok, err := seq.CurrentTickets(ctx, "vid1", "sess-a"); err != nil || ok {
		t.Fatalf("unassigned session: ok=%v err=%v, want ok=false err=nil", ok, err)
	}

	want, err := seq.NextMainTicket(ctx, 7, "vid1", "sess-a")
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := seq.CurrentTickets(ctx, "vid1", "sess-a")
	if err != nil || !ok {
		t.Fatalf("assigned session: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("CurrentTickets = %+v, want %+v", got, want)
	}
}

func TestConcurrentMainTicketsAreUniqueAndGapFree(t *testing.T) {
	seq, _, _ := newTestSequencer()
	const sessions = 32

	mains := make([]uint64, sessions)
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pair, err := seq.NextMainTicket(context.Background(), 7, "vid1", fmt.Sprintf("sess-%d", i))
			if err != nil {
				t.Errorf("session %d: %v", i, err)
				return
			}
			if pair.Sub != 1 {
				t.Errorf("session %d: sub = %d, want 1", i, pair.Sub)
			}
			mains[i] = pair.Main
		}(i)
	}
	wg.Wait()

	sort.Slice(mains, func(a, b int) bool { return mains[a] < mains[b] })
	for i, m := range mains {
		if m != uint64(i+1) {
			t.Fatalf("main tickets = %v, want 1..%d with no gaps or duplicates", mains, sessions)
		}
	}
}

func TestConcurrentSubTicketsAreUnique(t *testing.T) {
	seq, _, _ := newTestSequencer()
	ctx := context.Background()
	const workers = 16

	// Two sessions share the episode; sub tickets interleave but never
	// repeat because the counter lives on the subject.
	if _, err := seq.NextMainTicket(ctx, 7, "vid1", "sess-a"); err != nil {
		t.Fatal(err)
	}

	subs := make([]uint64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pair, err := seq.NextSubTicket(ctx, 7, "vid1", "sess-a")
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			subs[i] = pair.Sub
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, workers)
	for _, s := range subs {
		if seen[s] {
			t.Fatalf("duplicate sub ticket %d in %v", s, subs)
		}
		seen[s] = true
	}
}
