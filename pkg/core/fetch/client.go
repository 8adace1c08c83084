// Package fetch is the small HTTP JSON client shared by the remote series
// source and the benchmark fetcher.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// UserAgent is sent with every request.
const UserAgent = "EquiIntel/1.0"

// ErrNotFound is returned for HTTP 404 responses.
var ErrNotFound = errors.New("resource not found")

// Client fetches JSON documents with an optional bounded retry.
type Client struct {
	HTTP     *http.Client
	Attempts int           // total attempts, minimum 1
	Delay    time.Duration // wait between attempts
}

// NewClient creates a client with a 30s request timeout.
func NewClient(attempts int, delay time.Duration) *Client {
	return &Client{
		HTTP:     &http.Client{Timeout: 30 * time.Second},
		Attempts: attempts,
		Delay:    delay,
	}
}

// GetJSON downloads url and decodes it into out. Failed attempts are retried
// up to Attempts times with Delay between them; a 404 is final. The last error
// is returned when all attempts fail.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	attempts := c.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		err := c.getOnce(ctx, url, out)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNotFound) {
			return err
		}
		lastErr = err
		if i == attempts-1 {
			break
		}

		slog.Warn("Fetch failed, will retry.",
			"url", url,
			"attempt", i+1,
			"maxAttempts", attempts,
			"delay", c.Delay.String(),
			"error", err,
		)
		select {
		case <-time.After(c.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("fetch %s failed after %d attempt(s): %w", url, attempts, lastErr)
}

func (c *Client) getOnce(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
