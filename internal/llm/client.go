// Package llm implements the text-generation collaborator over an
// OpenAI-compatible chat completions API. Prompt construction lives
// here so the orchestration layer stays model-agnostic: it only sees
// "give me JSON for this transcript text".
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/learnpulse/learnpulse/internal/generation"
)

// Client calls a chat completions endpoint with bearer auth. It is safe
// for concurrent use; question chunks fan out over it in parallel.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient builds a Client. An empty baseURL falls back to the OpenAI
// public endpoint; model falls back to a small default.
func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// NewClientFromEnv reads LLM_API_URL, LLM_API_KEY and LLM_MODEL.
func NewClientFromEnv() *Client {
	return NewClient(os.Getenv("LLM_API_URL"), os.Getenv("LLM_API_KEY"), os.Getenv("LLM_MODEL"))
}

const questionPromptTemplate = `You are generating quiz questions for a video lecture.
Given the transcript excerpt below, produce multiple-choice questions covering its key points.
Respond with ONLY a JSON array; each element must be an object with the keys
"question", "options" (array of 4 strings) and "answer" (the correct option text).
Write everything in the language %q.

Transcript excerpt:
%s`

const summaryPromptTemplate = `You are summarizing a video lecture for a study guide.
Given the full transcript below, respond with ONLY a JSON object with the keys
"title", "overview" and "key_points" (array of strings).
Write everything in the language %q.

Transcript:
%s`

// GenerateQuestions asks the model for a question array over one
// transcript chunk.
func (c *Client) GenerateQuestions(ctx context.Context, transcriptText, language string) (string, error) {
	return c.complete(ctx, fmt.Sprintf(questionPromptTemplate, language, transcriptText))
}

// GenerateSummary asks the model for a summary document over the whole
// transcript.
func (c *Client) GenerateSummary(ctx context.Context, transcriptText, language string) (string, error) {
	return c.complete(ctx, fmt.Sprintf(summaryPromptTemplate, language, transcriptText))
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// httpError carries the upstream status so the retry loop can tell
// transient failures from hard ones.
type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("llm: upstream returned %d: %s", e.status, e.body)
}

// Retryable reports true for server-side failures; those resolve on
// their own and deserve another attempt.
func (e *httpError) Retryable() bool {
	return e.status >= 500
}

// complete performs one chat completion round trip and returns the raw
// assistant message content. A 429 maps to the rate-limit sentinel so
// the caller backs off instead of counting it as a model failure.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("llm: %w", generation.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &httpError{status: resp.StatusCode, body: truncate(string(body), 256)}
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if cr.Error != nil {
		return "", fmt.Errorf("llm: upstream error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("llm: response has no choices")
	}
	return stripCodeFence(cr.Choices[0].Message.Content), nil
}

// stripCodeFence removes a surrounding markdown code fence. Models wrap
// JSON in ```json fences often enough that doing it here saves a repair
// round downstream.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[i+1:] // drop the language tag line
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
