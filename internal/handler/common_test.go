package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func testContext(headers map[string]string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestGetUserID(t *testing.T) {
	cases := []struct {
		name    string
		value   interface{}
		want    uint64
		wantErr bool
	}{
		{"uint64", uint64(42), 42, false},
		{"int", 42, 42, false},
		{"int64", int64(42), 42, false},
		{"float64 from json claims", float64(42), 42, false},
		{"numeric string", "42", 42, false},
		{"garbage string", "forty-two", 0, true},
		{"missing", nil, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testContext(nil)
			if tc.value != nil {
				c.Set("user_id", tc.value)
			}
			got, err := getUserID(c)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("getUserID(%v) expected error, got %d", tc.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("getUserID(%v): %v", tc.value, err)
			}
			if got != tc.want {
				t.Fatalf("getUserID(%v) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}

func TestGetSessionID(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		c := testContext(map[string]string{"X-Session-ID": "sess-123"})
		got, err := getSessionID(c)
		if err != nil || got != "sess-123" {
			t.Fatalf("getSessionID = %q, %v", got, err)
		}
	})
	t.Run("missing", func(t *testing.T) {
		c := testContext(nil)
		if _, err := getSessionID(c); err == nil {
			t.Fatal("expected error for missing header")
		}
	})
	t.Run("too long", func(t *testing.T) {
		c := testContext(map[string]string{"X-Session-ID": strings.Repeat("x", 200)})
		if _, err := getSessionID(c); err == nil {
			t.Fatal("expected error for oversized header")
		}
	})
}
