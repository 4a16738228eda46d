// Package api is the HTTP client for the recorder backend that
// produces sessions.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/voxtape/voxtape/internal/core"
	verrors "github.com/voxtape/voxtape/internal/errors"
)

const (
	// Retry configuration for transient errors
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client is a recorder backend API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	verbose    bool
	logFunc    func(format string, args ...interface{})
}

// New creates a new backend client. baseURL is the backend root, e.g.
// "http://localhost:8000".
func New(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// SetVerbose enables verbose logging.
func (c *Client) SetVerbose(verbose bool, logFunc func(format string, args ...interface{})) {
	c.verbose = verbose
	c.logFunc = logFunc
}

func (c *Client) log(format string, args ...interface{}) {
	if c.verbose && c.logFunc != nil {
		c.logFunc(format, args...)
	}
}

// ListSessions fetches summaries of all recorded sessions, newest first.
func (c *Client) ListSessions(ctx context.Context) ([]core.Session, error) {
	var sessions []core.Session
	if err := c.request(ctx, "GET", "/api/sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession fetches one session by id. A backend 404 maps to
// errors.ErrSessionNotFound.
func (c *Client) GetSession(ctx context.Context, id string) (*core.Session, error) {
	var session core.Session
	err := c.request(ctx, "GET", "/api/sessions/"+url.PathEscape(id), nil, &session)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", verrors.ErrSessionNotFound, id)
		}
		return nil, err
	}
	return &session, nil
}

// CreateSession registers a new session with the backend.
func (c *Client) CreateSession(ctx context.Context, session *core.Session) (*core.Session, error) {
	var created core.Session
	if err := c.request(ctx, "POST", "/api/sessions", session, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTranscript replaces a session's transcript.
func (c *Client) UpdateTranscript(ctx context.Context, id string, turns []core.TranscriptTurn) (*core.Session, error) {
	var updated core.Session
	err := c.request(ctx, "PATCH", "/api/sessions/"+url.PathEscape(id)+"/transcript", turns, &updated)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", verrors.ErrSessionNotFound, id)
		}
		return nil, err
	}
	return &updated, nil
}

// UpdateFreezeEvents replaces a session's freeze events.
func (c *Client) UpdateFreezeEvents(ctx context.Context, id string, events []core.FreezeEvent) (*core.Session, error) {
	var updated core.Session
	err := c.request(ctx, "PATCH", "/api/sessions/"+url.PathEscape(id)+"/freeze_events", events, &updated)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", verrors.ErrSessionNotFound, id)
		}
		return nil, err
	}
	return &updated, nil
}

// ResolveRecordingURL turns a session's audio URL into an absolute
// URL. The recorder stores site-root-relative paths like
// "/recordings/<id>.wav"; absolute URLs pass through untouched. An
// empty input stays empty: that is the "no recording" state, not an
// error.
func (c *Client) ResolveRecordingURL(audioURL string) string {
	if audioURL == "" {
		return ""
	}
	if strings.Contains(audioURL, "://") {
		return audioURL
	}
	return c.baseURL + "/" + strings.TrimLeft(audioURL, "/")
}

// DownloadRecording streams a session's recording into dir and
// returns the local file path.
func (c *Client) DownloadRecording(ctx context.Context, audioURL, dir, id string) (string, error) {
	resolved := c.ResolveRecordingURL(audioURL)
	if resolved == "" {
		return "", verrors.ErrNoRecording
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", resolved, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	c.log("[api] GET %s", resolved)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	path := filepath.Join(dir, id+".wav")
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create recording file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write recording: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", err
	}

	return path, nil
}

func (c *Client) request(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	fullURL := c.baseURL + path

	if jsonBody != nil {
		c.log("[api] %s %s\n  body: %s", method, fullURL, string(jsonBody))
	} else {
		c.log("[api] %s %s", method, fullURL)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		// Wait before retry (skip on first attempt)
		if attempt > 0 {
			wait := baseRetryWait * time.Duration(1<<(attempt-1)) // exponential backoff
			c.log("[api] retry %d/%d after %v (last error: %v)", attempt, maxRetries, wait, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		var bodyReader io.Reader
		if jsonBody != nil {
			bodyReader = strings.NewReader(string(jsonBody))
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			c.log("[api] network error: %v", err)
			continue // Retry on network error
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		c.log("[api] response: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))

		if resp.StatusCode == http.StatusNoContent {
			return nil
		}

		// Retry on 429 and 5xx
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = parseAPIError(resp.StatusCode, respBody)
			c.log("[api] server error, will retry: %v", lastErr)
			continue
		}

		// Don't retry other 4xx errors
		if resp.StatusCode >= 400 {
			return parseAPIError(resp.StatusCode, respBody)
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

// APIError represents a backend error response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Detail)
}

func parseAPIError(status int, body []byte) error {
	var payload struct {
		Detail string `json:"detail"`
		Err    string `json:"error"`
	}
	detail := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		detail = payload.Detail
		if detail == "" {
			detail = payload.Err
		}
	}
	if detail == "" {
		detail = strings.TrimSpace(string(body))
	}
	return &APIError{Status: status, Detail: detail}
}
