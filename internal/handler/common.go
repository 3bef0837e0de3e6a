package handler // handler defines http handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the user_id placed in the context by the JWT
// middleware and converts it to uint64. The claim arrives as whatever
// type the token encoder used, so every plausible representation is
// accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getSessionID returns the client-chosen playback session identifier
// from the X-Session-ID header. Telemetry is meaningless without it, so
// callers treat an empty value as a bad request.
func getSessionID(c echo.Context) (string, error) {
	s := c.Request().Header.Get("X-Session-ID")
	if s == "" {
		return "", errors.New("missing X-Session-ID header")
	}
	if len(s) > 128 {
		return "", errors.New("X-Session-ID too long")
	}
	return s, nil
}
