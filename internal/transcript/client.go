// Package transcript fetches time-aligned transcripts from the media
// service that owns video assets. This service never stores
// transcripts; it reads them on demand when a generation job starts.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/learnpulse/learnpulse/internal/generation"
)

// Client retrieves transcripts over HTTP. The media service exposes
// GET {base}/videos/{id}/transcript returning the segment list below.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientFromEnv reads TRANSCRIPT_API_URL, defaulting to the local
// media service.
func NewClientFromEnv() *Client {
	base := os.Getenv("TRANSCRIPT_API_URL")
	if base == "" {
		base = "http://localhost:8081"
	}
	return NewClient(base)
}

type transcriptResponse struct {
	VideoID  string `json:"video_id"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Fetch returns the transcript for one video.
func (c *Client) Fetch(ctx context.Context, videoID string) (*generation.Transcript, error) {
	endpoint := fmt.Sprintf("%s/videos/%s/transcript", c.baseURL, url.PathEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("transcript: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcript: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("transcript: video %q has no transcript", videoID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcript: upstream returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("transcript: read response: %w", err)
	}

	var tr transcriptResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("transcript: decode response: %w", err)
	}

	out := &generation.Transcript{VideoID: videoID}
	for _, seg := range tr.Segments {
		out.Segments = append(out.Segments, generation.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	return out, nil
}
