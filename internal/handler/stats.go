package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/learnpulse/learnpulse/internal/generation"
	"github.com/learnpulse/learnpulse/internal/repository"
)

// StatsHandler reports a viewer's standing on one video: how much
// telemetry has been recorded, where playback last stood, and whether
// study material exists or is being generated. Clients use it to decide
// whether to offer the quiz without triggering a generation job.
type StatsHandler struct {
	Subjects  *repository.WatchSubjectRepo
	Events    *repository.WatchEventRepo
	Questions *repository.QuestionSetRepo
	Summaries *repository.SummaryRepo
	Locks     *repository.LockRepo
}

// NewStatsHandler constructs a StatsHandler and panics if any
// repository is nil.
func NewStatsHandler(subjects *repository.WatchSubjectRepo, events *repository.WatchEventRepo, questions *repository.QuestionSetRepo, summaries *repository.SummaryRepo, locks *repository.LockRepo) *StatsHandler {
	if subjects == nil || events == nil || questions == nil || summaries == nil || locks == nil {
		panic("nil repository passed to NewStatsHandler")
	}
	return &StatsHandler{Subjects: subjects, Events: events, Questions: questions, Summaries: summaries, Locks: locks}
}

// GetVideoStats handles GET /v1/videos/:id/stats.
func (h *StatsHandler) GetVideoStats(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	videoID := strings.TrimSpace(c.Param("id"))
	if videoID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing video id"})
	}
	lang := strings.TrimSpace(c.QueryParam("lang"))
	if lang == "" {
		lang = "en"
	}

	ctx := c.Request().Context()
	count, err := h.Events.CountBySubject(ctx, ownerID, videoID)
	if err != nil {
		c.Logger().Errorf("count events for video %s failed: %v", videoID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var position float64
	if subject, err := h.Subjects.GetByOwnerVideo(ctx, ownerID, videoID); err == nil {
		position = subject.PlaybackPosition
	} else if !errors.Is(err, repository.ErrSubjectNotFound) {
		c.Logger().Errorf("load subject for video %s failed: %v", videoID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	questions, err := h.materialInfo(ctx, videoID, lang, generation.KindQuestions)
	if err != nil {
		c.Logger().Errorf("question material info for video %s failed: %v", videoID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	summary, err := h.materialInfo(ctx, videoID, lang, generation.KindSummary)
	if err != nil {
		c.Logger().Errorf("summary material info for video %s failed: %v", videoID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"video_id":          videoID,
		"language":          lang,
		"events":            count,
		"playback_position": position,
		"questions":         questions,
		"summary":           summary,
	})
}

// materialInfo describes one job kind for the pair: generated (with
// timestamp) and whether a job currently holds the lock.
func (h *StatsHandler) materialInfo(ctx context.Context, videoID, lang string, kind generation.Kind) (echo.Map, error) {
	info := echo.Map{"generated": false}
	switch kind {
	case generation.KindSummary:
		sm, err := h.Summaries.GetByPair(ctx, videoID, lang)
		if err == nil {
			info = echo.Map{"generated": true, "created_at": sm.CreatedAt}
		} else if !errors.Is(err, repository.ErrResultNotFound) {
			return nil, err
		}
	default:
		qs, err := h.Questions.GetByPair(ctx, videoID, lang)
		if err == nil {
			info = echo.Map{"generated": true, "created_at": qs.CreatedAt}
		} else if !errors.Is(err, repository.ErrResultNotFound) {
			return nil, err
		}
	}

	lock, err := h.Locks.Get(ctx, generation.LockKey(videoID, lang, kind))
	if err != nil {
		return nil, err
	}
	info["in_progress"] = lock != nil
	return info, nil
}
