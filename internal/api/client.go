// Package api is the fetch-side companion to the event stream: small typed
// GETs against the orchestrator's REST surface (agent roster, model registry,
// rate-limit status), polled independently of the stream and merged into UI
// state by the dashboard. The backend being offline is a degraded status, not
// an error the caller must handle.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// fetchTimeout bounds each REST round-trip.
const fetchTimeout = 5 * time.Second

// RosterEntry is one agent in the orchestrator's roster.
type RosterEntry struct {
	Agent   string `json:"agent"`
	Display string `json:"display"`
	Enabled bool   `json:"enabled"`
}

// ModelInfo is one entry in the model registry.
type ModelInfo struct {
	Name    string `json:"name"`
	Tier    string `json:"tier"`
	Default bool   `json:"default"`
}

// RateLimit is the orchestrator's current rate-limit status.
type RateLimit struct {
	Limited    bool   `json:"limited"`
	ResetAt    string `json:"reset_at"`
	Reason     string `json:"reason"`
	RetryAfter int    `json:"retry_after_seconds"`
}

// Client issues REST lookups against the orchestrator.
type Client struct {
	base string
	http *http.Client
}

// New creates a Client for the given base URL (e.g. http://localhost:8765).
func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: fetchTimeout},
	}
}

// BaseFromWS derives an http base URL from a websocket endpoint by swapping
// the scheme and dropping the path.
func BaseFromWS(wsURL string) string {
	base := strings.Replace(wsURL, "ws://", "http://", 1)
	base = strings.Replace(base, "wss://", "https://", 1)
	scheme, rest, ok := strings.Cut(base, "://")
	if !ok {
		return base
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		rest = rest[:i]
	}
	return scheme + "://" + rest
}

// Roster fetches the agent roster.
func (c *Client) Roster(ctx context.Context) ([]RosterEntry, error) {
	var out []RosterEntry
	if err := c.get(ctx, "/api/agents", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Models fetches the model registry.
func (c *Client) Models(ctx context.Context) ([]ModelInfo, error) {
	var out []ModelInfo
	if err := c.get(ctx, "/api/models", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RateLimit fetches the current rate-limit status.
func (c *Client) RateLimit(ctx context.Context) (RateLimit, error) {
	var out RateLimit
	if err := c.get(ctx, "/api/ratelimit", &out); err != nil {
		return RateLimit{}, err
	}
	return out, nil
}

// ClearRateLimit asks the orchestrator to clear a stuck rate-limit flag.
func (c *Client) ClearRateLimit(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/ratelimit/clear", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("clear rate limit: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close, body unused
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("clear rate limit: status %d", resp.StatusCode)
	}
	return nil
}

// get issues one GET and decodes the JSON body into v.
func (c *Client) get(ctx context.Context, path string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close after decode

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
