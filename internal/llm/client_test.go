package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/learnpulse/learnpulse/internal/generation"
)

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `[{"q":1}]`, `[{"q":1}]`},
		{"plain fence", "```\n[1,2]\n```", "[1,2]"},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fence with surrounding whitespace", "  ```json\n[]\n```  ", "[]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripCodeFence(tc.in); got != tc.want {
				t.Fatalf("stripCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"role": "assistant", "content": content}},
				},
			})
		}
	}))
}

func TestCompleteReturnsContent(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `[{"question":"q1"}]`)
	defer srv.Close()

	c := NewClient(srv.URL, "key", "model")
	out, err := c.GenerateQuestions(context.Background(), "transcript text", "en")
	if err != nil {
		t.Fatalf("GenerateQuestions: %v", err)
	}
	if out != `[{"question":"q1"}]` {
		t.Fatalf("content = %q", out)
	}
}

func TestCompleteMapsRateLimit(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, "")
	defer srv.Close()

	c := NewClient(srv.URL, "key", "model")
	_, err := c.GenerateSummary(context.Background(), "transcript text", "en")
	if !errors.Is(err, generation.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if !generation.IsRetryable(err) {
		t.Fatal("rate limited error must be retryable")
	}
}

func TestCompleteMarksServerErrorsRetryable(t *testing.T) {
	srv := chatServer(t, http.StatusBadGateway, "")
	defer srv.Close()

	c := NewClient(srv.URL, "key", "model")
	_, err := c.GenerateSummary(context.Background(), "transcript text", "en")
	if err == nil {
		t.Fatal("expected error for 502")
	}
	if !generation.IsRetryable(err) {
		t.Fatal("5xx errors should be retryable")
	}
}

func TestCompleteRejectsClientErrors(t *testing.T) {
	srv := chatServer(t, http.StatusBadRequest, "")
	defer srv.Close()

	c := NewClient(srv.URL, "key", "model")
	_, err := c.GenerateQuestions(context.Background(), "transcript text", "en")
	if err == nil {
		t.Fatal("expected error for 400")
	}
	if generation.IsRetryable(err) {
		t.Fatal("4xx errors must not be retryable")
	}
}
