// Package generation coordinates the slow, expensive jobs that turn a
// video transcript into study material. The contract is single-flight:
// for any (video, language, kind) at most one generation job runs
// anywhere in the cluster, enforced by the shared lock store, while
// every other caller is told to poll. Requests never block on a job;
// the work happens in a detached background worker that owns the lock
// until it exits.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Kind selects which generation job a request refers to. The two kinds
// never collide: each contributes its own suffix to the lock key and
// persists into its own store.
type Kind string

const (
	// KindQuestions generates a quiz question set from the transcript,
	// chunk by chunk.
	KindQuestions Kind = "questions"
	// KindSummary generates a summary from the whole transcript.
	KindSummary Kind = "summary"
)

// lockSuffix differentiates job kinds on the same (video, language)
// pair so their locks never collide.
func (k Kind) lockSuffix() string {
	if k == KindSummary {
		return "_Summary"
	}
	return ""
}

// LockKey derives the cluster-wide mutual exclusion key for one job.
func LockKey(videoID, language string, kind Kind) string {
	return videoID + "_" + language + kind.lockSuffix()
}

// Status classifies the outcome of a GetOrGenerate call.
type Status string

const (
	// StatusSuccess means the result is in the body.
	StatusSuccess Status = "success"
	// StatusPending means the caller should poll again later.
	StatusPending Status = "pending"
	// StatusFailed means the call could not determine or produce a
	// result: it accompanies the non-nil error of a storage failure. A
	// later request starts over.
	StatusFailed Status = "failed"
)

// Pending reasons surfaced to clients. Both are normal control flow,
// not errors.
const (
	ReasonStarted    = "generation started"
	ReasonInProgress = "in progress elsewhere"
)

// StatusResult is the reply of GetOrGenerate.
type StatusResult struct {
	Status Status          `json:"status"`
	Reason string          `json:"reason,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// Locker is the mutual exclusion capability. Acquire must be atomic
// and non-blocking: acquired=false with a nil error is the expected
// busy outcome, while a non-nil error means the lock store itself
// failed and the caller cannot know either way. Release is idempotent
// and only fails on genuine storage errors.
type Locker interface {
	Acquire(ctx context.Context, key string) (token string, acquired bool, err error)
	Release(ctx context.Context, key, token string) error
}

// ResultStore is the durable cache a job kind persists into. Load is
// only called after Exists reported true; since both happen under the
// job's lock, the check-then-read pair is linearizable with respect to
// the worker that writes the result.
type ResultStore interface {
	Exists(ctx context.Context, videoID, language string) (bool, error)
	Load(ctx context.Context, videoID, language string) (json.RawMessage, error)
	Store(ctx context.Context, videoID, language string, payload json.RawMessage) error
}

// TranscriptSource fetches the time-aligned transcript a job consumes.
type TranscriptSource interface {
	Fetch(ctx context.Context, videoID string) (*Transcript, error)
}

// Generator is the opaque text-generation call. Prompt construction and
// model semantics live entirely behind this interface; the orchestrator
// only cares that the returned text should be JSON. Implementations
// signal rate limiting with an error for which IsRetryable reports
// true.
type Generator interface {
	GenerateQuestions(ctx context.Context, transcriptText, language string) (string, error)
	GenerateSummary(ctx context.Context, transcriptText, language string) (string, error)
}

// Config bounds the background workers. Zero values are replaced by the
// defaults below.
type Config struct {
	// QuestionAttempts is the retry ceiling per transcript chunk.
	QuestionAttempts int
	// SummaryAttempts is the retry ceiling for a summary job.
	SummaryAttempts int
	// BackoffBase is the initial retry delay; it doubles per attempt
	// with jitter.
	BackoffBase time.Duration
	// BackoffCap is the upper bound on a single retry delay.
	BackoffCap time.Duration
	// ChunkWindow is the transcript time span handled by one question
	// chunk worker.
	ChunkWindow time.Duration
	// JobTimeout bounds one whole background job.
	JobTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.QuestionAttempts <= 0 {
		c.QuestionAttempts = 5
	}
	if c.SummaryAttempts <= 0 {
		c.SummaryAttempts = 3
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 500 * time.Millisecond
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = 10 * time.Second
	}
	if c.ChunkWindow <= 0 {
		c.ChunkWindow = 10 * time.Minute
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 15 * time.Minute
	}
	return c
}

// Orchestrator implements the GetOrGenerate contract over injected
// collaborators. It holds no in-memory job state of its own: the lock
// table and the result stores are the only coordination points, which
// is what lets any number of server processes share the work safely.
type Orchestrator struct {
	locks       Locker
	transcripts TranscriptSource
	gen         Generator
	questions   ResultStore
	summaries   ResultStore
	publisher   CompletionPublisher
	cfg         Config
	log         zerolog.Logger

	workers sync.WaitGroup
}

// NewOrchestrator wires an Orchestrator. The publisher may be nil, in
// which case completion events are skipped.
func NewOrchestrator(locks Locker, transcripts TranscriptSource, gen Generator, questions, summaries ResultStore, publisher CompletionPublisher, cfg Config, log zerolog.Logger) *Orchestrator {
	if locks == nil || transcripts == nil || gen == nil || questions == nil || summaries == nil {
		panic("nil collaborator passed to NewOrchestrator")
	}
	return &Orchestrator{
		locks:       locks,
		transcripts: transcripts,
		gen:         gen,
		questions:   questions,
		summaries:   summaries,
		publisher:   publisher,
		cfg:         cfg.withDefaults(),
		log:         log,
	}
}

// storeFor maps a job kind to its durable cache.
func (o *Orchestrator) storeFor(kind Kind) ResultStore {
	if kind == KindSummary {
		return o.summaries
	}
	return o.questions
}

// GetOrGenerate returns the cached result for the pair when one exists,
// and otherwise ensures that exactly one generation job is running for
// it. The call never waits for generation: contention and a freshly
// started job both come back as StatusPending with a distinguishing
// reason, and the client is expected to poll the same endpoint. The
// returned error is non-nil only for storage failures, which must stay
// distinguishable from the busy outcome (treating them as "lock held"
// would break mutual exclusion, treating them as "not held" would
// break single-flight); those carry StatusFailed so callers can relay
// the failure as a status.
func (o *Orchestrator) GetOrGenerate(ctx context.Context, videoID, language string, kind Kind) (StatusResult, error) {
	lockKey := LockKey(videoID, language, kind)

	token, acquired, err := o.locks.Acquire(ctx, lockKey)
	if err != nil {
		return StatusResult{Status: StatusFailed}, fmt.Errorf("acquire lock %q: %w", lockKey, err)
	}
	if !acquired {
		o.log.Debug().Str("lock_key", lockKey).Msg("generation already in flight")
		return StatusResult{Status: StatusPending, Reason: ReasonInProgress}, nil
	}

	store := o.storeFor(kind)
	cached, err := store.Exists(ctx, videoID, language)
	if err != nil {
		o.release(lockKey, token)
		return StatusResult{Status: StatusFailed}, fmt.Errorf("check cached result: %w", err)
	}
	if cached {
		payload, err := store.Load(ctx, videoID, language)
		o.release(lockKey, token)
		if err != nil {
			return StatusResult{Status: StatusFailed}, fmt.Errorf("load cached result: %w", err)
		}
		return StatusResult{Status: StatusSuccess, Result: payload}, nil
	}

	// Cache miss while holding the lock: hand the lock to a detached
	// worker and reply immediately. From here on the worker alone is
	// responsible for releasing it.
	o.startWorker(lockKey, token, videoID, language, kind)
	return StatusResult{Status: StatusPending, Reason: ReasonStarted}, nil
}

// Wait blocks until every background worker has exited. Used for
// graceful shutdown and by tests.
func (o *Orchestrator) Wait() {
	o.workers.Wait()
}

// release frees a lock from a request path, with its own short deadline
// so a stalled lock store cannot pin the request.
func (o *Orchestrator) release(lockKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.locks.Release(ctx, lockKey, token); err != nil {
		o.log.Error().Err(err).Str("lock_key", lockKey).Msg("release lock failed")
	}
}
