package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/claude/liftlog/internal/ingest"
)

// Client sends export files to the LiftLog ingest endpoints.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	attempts   int
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the LiftLog server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		attempts: 3,
		backoff:  time.Second,
	}
}

// SendAlphaCSV POSTs an Alpha Progression export to /api/v1/ingest/alpha.
func (c *Client) SendAlphaCSV(ctx context.Context, data []byte) (*ingest.Result, error) {
	return c.send(ctx, "/api/v1/ingest/alpha", "text/csv", data)
}

// SendHAEJSON POSTs a Health Auto Export payload to /api/v1/ingest/hae.
func (c *Client) SendHAEJSON(ctx context.Context, data []byte) (*ingest.Result, error) {
	return c.send(ctx, "/api/v1/ingest/hae", "application/json", data)
}

// send retries with exponential backoff on network errors and 5xx
// responses. Client errors are returned at once.
func (c *Client) send(ctx context.Context, path, contentType string, data []byte) (*ingest.Result, error) {
	var lastErr error
	for attempt := range c.attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+path, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			var res ingest.Result
			if err := json.Unmarshal(body, &res); err != nil {
				return nil, fmt.Errorf("decoding ingest result: %w", err)
			}
			return &res, nil
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("ingest failed (status %d): %s", resp.StatusCode, body)
		default:
			return nil, fmt.Errorf("ingest rejected (status %d): %s", resp.StatusCode, body)
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", c.attempts, lastErr)
}
