package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/learnpulse/learnpulse/internal/generation"
)

// StudyHandler serves the generated study material endpoints. Both
// endpoints have identical get-or-start semantics: a cached result
// comes back immediately, anything else starts (or observes) a
// background job and tells the client to poll.
type StudyHandler struct {
	Orch *generation.Orchestrator
}

// NewStudyHandler constructs a StudyHandler and panics if the
// orchestrator is nil.
func NewStudyHandler(orch *generation.Orchestrator) *StudyHandler {
	if orch == nil {
		panic("nil orchestrator passed to NewStudyHandler")
	}
	return &StudyHandler{Orch: orch}
}

// GetQuestions handles GET /v1/videos/:id/questions.
func (h *StudyHandler) GetQuestions(c echo.Context) error {
	return h.getOrGenerate(c, generation.KindQuestions)
}

// GetSummary handles GET /v1/videos/:id/summary.
func (h *StudyHandler) GetSummary(c echo.Context) error {
	return h.getOrGenerate(c, generation.KindSummary)
}

// getOrGenerate maps the orchestrator's status to HTTP: success is 200
// with the result inline, pending is 202 so pollers keep polling, and
// only storage failures become 500s.
func (h *StudyHandler) getOrGenerate(c echo.Context, kind generation.Kind) error {
	videoID := strings.TrimSpace(c.Param("id"))
	if videoID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing video id"})
	}
	lang := strings.TrimSpace(c.QueryParam("lang"))
	if lang == "" {
		lang = "en"
	}

	res, err := h.Orch.GetOrGenerate(c.Request().Context(), videoID, lang, kind)
	if err != nil {
		c.Logger().Errorf("get-or-generate %s for video %s failed: %v", kind, videoID, err)
		res.Reason = "internal error"
		return c.JSON(http.StatusInternalServerError, res)
	}

	if res.Status == generation.StatusPending {
		return c.JSON(http.StatusAccepted, res)
	}
	return c.JSON(http.StatusOK, res)
}
