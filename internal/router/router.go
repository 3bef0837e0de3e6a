package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/learnpulse/learnpulse/internal/handler"
	"github.com/learnpulse/learnpulse/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the authenticated v1 surface. Study material
// GETs sit behind the response cache so repeated polls of a finished
// result never touch MySQL; telemetry ingestion sits behind the token
// bucket because players post batches continuously.
func RegisterAPI(e *echo.Echo, study *handler.StudyHandler, tel *handler.TelemetryHandler, stats *handler.StatsHandler, jwtSecret string, cache, limit echo.MiddlewareFunc) {
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))

	v1.GET("/videos/:id/questions", study.GetQuestions, cache)
	v1.GET("/videos/:id/summary", study.GetSummary, cache)
	v1.GET("/videos/:id/stats", stats.GetVideoStats)
	v1.POST("/videos/:id/telemetry", tel.LogBatch, limit)
}
