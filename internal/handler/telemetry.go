package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/learnpulse/learnpulse/internal/telemetry"
)

// TelemetryHandler ingests batched playback events from video players.
type TelemetryHandler struct {
	Recorder *telemetry.Recorder
	validate *validator.Validate
}

// NewTelemetryHandler constructs a TelemetryHandler and panics if the
// recorder is nil.
func NewTelemetryHandler(rec *telemetry.Recorder) *TelemetryHandler {
	if rec == nil {
		panic("nil recorder passed to NewTelemetryHandler")
	}
	return &TelemetryHandler{
		Recorder: rec,
		validate: validator.New(),
	}
}

// telemetryEvent is one playback sample in a client batch.
type telemetryEvent struct {
	Kind       string    `json:"kind" validate:"required,max=32"`
	Position   float64   `json:"position" validate:"gte=0"`
	OccurredAt time.Time `json:"occurred_at" validate:"required"`
}

// telemetryRequest is the POST body. The batch size ceiling keeps a
// misbehaving player from turning one request into an unbounded insert.
type telemetryRequest struct {
	Events []telemetryEvent `json:"events" validate:"required,min=1,max=500,dive"`
}

// LogBatch handles POST /v1/videos/:id/telemetry. The whole batch is
// stamped with a single ticket pair, which is echoed back so the client
// can correlate later batches with this viewing episode.
func (h *TelemetryHandler) LogBatch(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, err := getSessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	videoID := strings.TrimSpace(c.Param("id"))
	if videoID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing video id"})
	}

	var req telemetryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "detail": err.Error()})
	}

	inputs := make([]telemetry.EventInput, 0, len(req.Events))
	for _, ev := range req.Events {
		inputs = append(inputs, telemetry.EventInput{
			Kind:       ev.Kind,
			Position:   ev.Position,
			OccurredAt: ev.OccurredAt.UTC(),
		})
	}

	pair, err := h.Recorder.LogBatch(c.Request().Context(), ownerID, sessionID, videoID, inputs)
	if err != nil {
		c.Logger().Errorf("log telemetry batch for video %s failed: %v", videoID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"main_ticket": pair.Main,
		"sub_ticket":  pair.Sub,
		"recorded":    len(inputs),
	})
}
