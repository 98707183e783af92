package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// DefaultIngestionURL is Mixpanel's track ingestion endpoint.
const DefaultIngestionURL = "https://api.mixpanel.com/track"

// DefaultRequestTimeout bounds a single ingestion call.
const DefaultRequestTimeout = 10 * time.Second

// Opts holds configuration options for the Mixpanel tracker.
type Opts struct {
	Token      string
	URL        string
	HTTPClient *http.Client
}

// Option configures the Mixpanel tracker.
type Option func(*Opts)

// WithToken sets the Mixpanel project token.
func WithToken(token string) Option {
	return func(o *Opts) { o.Token = token }
}

// WithURL overrides the ingestion endpoint (used in tests).
func WithURL(u string) Option {
	return func(o *Opts) { o.URL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// Mixpanel tracks events against the Mixpanel HTTP ingestion API.
type Mixpanel struct {
	token  string
	url    string
	client *http.Client
}

var _ Tracker = (*Mixpanel)(nil)

// NewMixpanel creates a Mixpanel tracker. The token falls back to the
// MIXPANEL_PROJECT_TOKEN environment variable.
func NewMixpanel(opts ...Option) (*Mixpanel, error) {
	cfg := Opts{URL: DefaultIngestionURL}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv("MIXPANEL_PROJECT_TOKEN")
	}
	slog.Debug("Mixpanel.NewMixpanel: tracker config loaded", "token_set", cfg.Token != "", "url", cfg.URL)
	if cfg.Token == "" {
		return nil, fmt.Errorf("mixpanel project token must be provided")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultRequestTimeout}
	}
	return &Mixpanel{token: cfg.Token, url: cfg.URL, client: cfg.HTTPClient}, nil
}

type trackEvent struct {
	Event      string                 `json:"event"`
	Properties map[string]interface{} `json:"properties"`
}

// Track sends one event to the ingestion endpoint.
func (m *Mixpanel) Track(ctx context.Context, distinctID, event string, props map[string]interface{}) error {
	properties := map[string]interface{}{
		"token":       m.token,
		"distinct_id": distinctID,
		"time":        time.Now().Unix(),
	}
	for k, v := range props {
		properties[k] = v
	}

	payload, err := json.Marshal([]trackEvent{{Event: event, Properties: properties}})
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build track request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/plain")

	resp, err := m.client.Do(req)
	if err != nil {
		slog.Error("Mixpanel.Track request failed", "error", err, "event", event)
		return fmt.Errorf("failed to send event %s: %w", event, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		slog.Error("Mixpanel.Track rejected", "status", resp.StatusCode, "event", event)
		return fmt.Errorf("mixpanel rejected event %s: status %d", event, resp.StatusCode)
	}
	slog.Debug("Mixpanel.Track succeeded", "event", event, "distinct_id", distinctID)
	return nil
}
