// Package tuner searches for a strategy that raises one agent's situational
// awareness. It drives the session API: create a session, run it, read back
// the tracked agent's series, and score it.
package tuner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrNotTracked is returned when the server holds no series for the agent.
var ErrNotTracked = errors.New("agent not tracked")

// SessionRequest mirrors the body of POST /session/create.
type SessionRequest struct {
	Agents     int       `json:"agents"`
	Houses     int       `json:"houses"`
	Days       int       `json:"days"`
	Share      string    `json:"share"`
	Noise      float64   `json:"noise"`
	Seed       *int64    `json:"seed,omitempty"`
	Track      []string  `json:"track,omitempty"`
	MTWho      string    `json:"mt_who,omitempty"`
	MTStrategy *Strategy `json:"mt_strategy,omitempty"`
}

// RunResult mirrors the response of POST /session/{sid}/run.
type RunResult struct {
	Status     string  `json:"status"`
	SessionID  string  `json:"session_id"`
	CSV        string  `json:"csv"`
	XML        string  `json:"xml"`
	Metrics    string  `json:"metrics"`
	FinishedAt float64 `json:"finished_at"`
}

// seriesPoint mirrors items of GET /session/{sid}/metrics?who=.
type seriesPoint struct {
	Day   int     `json:"day"`
	SAAny float64 `json:"sa_any"`
}

// apiError carries a non-2xx response.
type apiError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Client talks to the session API.
type Client struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
}

// NewClient creates a Client targeting the given API base URL.
func NewClient(baseURL, adminKey string) *Client {
	return &Client{
		BaseURL:  baseURL,
		AdminKey: adminKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

// CreateSession creates a session and returns its id.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (string, error) {
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/session/create", req, &out); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if out.SessionID == "" {
		return "", errors.New("create session: empty session_id")
	}
	return out.SessionID, nil
}

// Run runs a session to completion.
func (c *Client) Run(ctx context.Context, sid string) (*RunResult, error) {
	var out RunResult
	if err := c.do(ctx, http.MethodPost, "/session/"+sid+"/run", nil, &out); err != nil {
		return nil, fmt.Errorf("run session %s: %w", sid, err)
	}
	return &out, nil
}

// Series returns who's daily sa_any values for a finished session.
func (c *Client) Series(ctx context.Context, sid, who string) ([]float64, error) {
	var out struct {
		Series []seriesPoint `json:"series"`
	}
	err := c.do(ctx, http.MethodGet, "/session/"+sid+"/metrics?who="+who, nil, &out)
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil, fmt.Errorf("series %s/%s: %w", sid, who, ErrNotTracked)
	}
	if err != nil {
		return nil, fmt.Errorf("series %s/%s: %w", sid, who, err)
	}
	vals := make([]float64, len(out.Series))
	for i, p := range out.Series {
		vals[i] = p.SAAny
	}
	return vals, nil
}

// WaitReady polls GET /health with exponential backoff until the API answers
// or ctx ends.
func (c *Client) WaitReady(ctx context.Context) error {
	backoff := 200 * time.Millisecond
	const maxBackoff = 5 * time.Second
	for {
		err := c.do(ctx, http.MethodGet, "/health", nil, nil)
		if err == nil {
			return nil
		}
		slog.Info("api not ready, retrying", "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for api: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// do sends body as JSON (when non-nil) and decodes a 200 response into target
// (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AdminKey != "" && method != http.MethodGet {
		req.Header.Set("Authorization", "Bearer "+c.AdminKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apiError{Method: method, Path: path, Status: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
