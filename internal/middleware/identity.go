package middleware

// identity.go defines helper functions shared across middleware files.
// It provides the user and session identity extraction used to build
// per-caller rate limit keys.

import (
	"github.com/labstack/echo/v4"
)

// sessionHeader carries the opaque playback session identifier chosen
// by the client. It is not an authentication credential; it only scopes
// ticket state and rate limiting.
const sessionHeader = "X-Session-ID"

// currentUserID returns the authenticated viewer identifier stored by
// JWTAuth, or "anon" when the request is unauthenticated.
func currentUserID(c echo.Context) string {
	if v := c.Get("user_id"); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "anon"
}

// currentSessionID returns the client's session header value, or
// "nosession" when absent so rate keys stay well-formed.
func currentSessionID(c echo.Context) string {
	if s := c.Request().Header.Get(sessionHeader); s != "" {
		return s
	}
	return "nosession"
}
