package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/learnpulse/learnpulse/internal/queue"
)

// CompletionPublisher receives an event after a job has persisted its
// result. Publish failures never affect the job outcome.
type CompletionPublisher interface {
	PublishGenerationCompleted(ctx context.Context, ev queue.GenerationCompletedEvent) error
}

// startWorker launches the detached goroutine that runs one generation
// job. Ownership of the lock transfers to the worker here; the combined
// recover + single-shot release below is the correctness-critical part
// of the whole design: no exit path, including a panic inside the job,
// may leave the lock row behind.
func (o *Orchestrator) startWorker(lockKey, token, videoID, language string, kind Kind) {
	o.workers.Add(1)
	go func() {
		defer o.workers.Done()

		log := o.log.With().
			Str("lock_key", lockKey).
			Str("video_id", videoID).
			Str("language", language).
			Str("kind", string(kind)).
			Logger()

		released := false
		release := func() {
			if released {
				return
			}
			released = true
			// Fresh context: the job context may already be expired.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := o.locks.Release(ctx, lockKey, token); err != nil {
				log.Error().Err(err).Msg("worker failed to release lock")
			}
		}
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("generation worker panicked")
			}
			release()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.JobTimeout)
		defer cancel()

		started := time.Now()
		count, err := o.runJob(ctx, videoID, language, kind)
		if err != nil {
			// No cache write happened, so the next request for this
			// pair starts a fresh job once the lock is gone.
			log.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("generation job failed")
			return
		}
		log.Info().Int("items", count).Dur("elapsed", time.Since(started)).Msg("generation job completed")

		if o.publisher != nil {
			ev := queue.GenerationCompletedEvent{
				EventID:     uuid.NewString(),
				VideoID:     videoID,
				Language:    language,
				Kind:        string(kind),
				ItemCount:   count,
				DurationMS:  time.Since(started).Milliseconds(),
				CompletedAt: time.Now().UTC().Format(time.RFC3339),
			}
			pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer pubCancel()
			if err := o.publisher.PublishGenerationCompleted(pubCtx, ev); err != nil {
				log.Warn().Err(err).Msg("publish completion event failed")
			}
		}
	}()
}

// runJob produces and persists the payload for one job. It returns the
// number of generated items (questions, or 1 for a summary) so the
// completion event can report it.
func (o *Orchestrator) runJob(ctx context.Context, videoID, language string, kind Kind) (int, error) {
	transcript, err := o.transcripts.Fetch(ctx, videoID)
	if err != nil {
		return 0, fmt.Errorf("fetch transcript: %w", err)
	}

	var payload json.RawMessage
	var count int
	switch kind {
	case KindSummary:
		payload, err = o.generateSummary(ctx, transcript, language)
		count = 1
	default:
		payload, count, err = o.generateQuestions(ctx, transcript, language)
	}
	if err != nil {
		return 0, err
	}

	if err := o.storeFor(kind).Store(ctx, videoID, language, payload); err != nil {
		return 0, fmt.Errorf("store result: %w", err)
	}
	return count, nil
}

// generateSummary runs the single-call variant: the whole transcript in
// one generation call with bounded retries. An empty document is
// treated as a failed attempt so that garbage is never cached.
func (o *Orchestrator) generateSummary(ctx context.Context, transcript *Transcript, language string) (json.RawMessage, error) {
	text := transcript.FullText()
	if text == "" {
		return nil, errors.New("transcript is empty")
	}
	return o.generateJSON(ctx, o.cfg.SummaryAttempts, func(ctx context.Context) (string, error) {
		return o.gen.GenerateSummary(ctx, text, language)
	}, func(payload json.RawMessage) bool {
		return !isEmptyDocument(payload)
	})
}

// generateQuestions runs the multi-chunk variant: the transcript is cut
// into time-bounded chunks processed by parallel chunk workers, each
// with its own retry budget. A chunk that exhausts its retries
// contributes nothing rather than failing the job; only an entirely
// empty concatenation fails the job, leaving no cache entry behind so a
// later request retries generation.
func (o *Orchestrator) generateQuestions(ctx context.Context, transcript *Transcript, language string) (json.RawMessage, int, error) {
	chunks := chunkByWindow(transcript, o.cfg.ChunkWindow.Seconds())
	if len(chunks) == 0 {
		return nil, 0, errors.New("transcript is empty")
	}

	results := make([][]json.RawMessage, len(chunks))
	var wg sync.WaitGroup
	for i, text := range chunks {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			defer func() {
				// A panicking chunk degrades to an empty contribution,
				// like any other exhausted chunk.
				if r := recover(); r != nil {
					o.log.Error().Interface("panic", r).Int("chunk", i).Msg("chunk worker panicked")
				}
			}()
			payload, err := o.generateJSON(ctx, o.cfg.QuestionAttempts, func(ctx context.Context) (string, error) {
				return o.gen.GenerateQuestions(ctx, text, language)
			}, nil)
			if err != nil {
				o.log.Warn().Err(err).Int("chunk", i).Msg("chunk exhausted retries")
				return
			}
			var items []json.RawMessage
			if err := json.Unmarshal(payload, &items); err != nil {
				o.log.Warn().Err(err).Int("chunk", i).Msg("chunk output is not a question array")
				return
			}
			results[i] = items
		}(i, text)
	}
	wg.Wait()

	var all []json.RawMessage
	for _, items := range results {
		all = append(all, items...)
	}
	if len(all) == 0 {
		return nil, 0, errors.New("no questions generated from any chunk")
	}
	payload, err := json.Marshal(all)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal question set: %w", err)
	}
	return payload, len(all), nil
}

// generateJSON is the shared attempt loop: call the generator, parse
// the output as JSON, and on a parse failure run it through Repair and
// parse once more before counting the attempt as failed. Attempts are
// separated by exponential backoff with jitter, capped, and the loop
// honors context cancellation between attempts. The optional accept
// callback can reject a technically valid document (for example an
// empty one).
func (o *Orchestrator) generateJSON(ctx context.Context, attempts int, call func(context.Context) (string, error), accept func(json.RawMessage) bool) (json.RawMessage, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = o.cfg.BackoffBase
	bo.MaxInterval = o.cfg.BackoffCap
	bo.MaxElapsedTime = 0

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := call(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			lastErr = err
			if IsRetryable(err) {
				o.log.Debug().Err(err).Int("attempt", attempt).Msg("generation call rate limited, backing off")
			} else {
				o.log.Debug().Err(err).Int("attempt", attempt).Msg("generation call failed")
			}
		} else if payload, ok := parseOrRepair(raw); !ok {
			lastErr = errors.New("output is not valid JSON even after repair")
		} else if accept != nil && !accept(payload) {
			lastErr = errors.New("output is an empty document")
		} else {
			return payload, nil
		}

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(bo.NextBackOff()):
		}
	}
	return nil, fmt.Errorf("all %d attempts failed, last error: %w", attempts, lastErr)
}

// parseOrRepair validates the raw generation output as JSON, falling
// back to one repair pass for truncated documents.
func parseOrRepair(raw string) (json.RawMessage, bool) {
	if json.Valid([]byte(raw)) {
		return json.RawMessage(raw), true
	}
	repaired := Repair(raw)
	if json.Valid([]byte(repaired)) {
		return json.RawMessage(repaired), true
	}
	return nil, false
}

// isEmptyDocument reports whether a payload is the minimal `{}`/`[]`
// (or null) document, which Repair produces when nothing could be
// recovered.
func isEmptyDocument(payload json.RawMessage) bool {
	var v interface{}
	if err := json.Unmarshal(payload, &v); err != nil {
		return true
	}
	switch t := v.(type) {
	case map[string]interface{}:
		return len(t) == 0
	case []interface{}:
		return len(t) == 0
	case nil:
		return true
	}
	return false
}
