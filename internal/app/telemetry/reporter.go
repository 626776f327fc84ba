package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
)

// Reporter delivers interaction events to the submission endpoint.
type Reporter interface {
	Report(ctx context.Context, event Event) error
}

// HTTPReporter posts events as JSON to an interaction-submission endpoint.
type HTTPReporter struct {
	endpoint   string
	httpClient *http.Client
}

// HTTPConfig represents HTTP reporter configuration.
type HTTPConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// NewHTTPReporter creates a new HTTP reporter.
func NewHTTPReporter(cfg HTTPConfig) (*HTTPReporter, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("telemetry endpoint is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPReporter{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Report submits a single event.
func (r *HTTPReporter) Report(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Newf("interaction endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// NopReporter discards every event. Used when no endpoint is configured.
type NopReporter struct{}

// Report implements Reporter.
func (NopReporter) Report(context.Context, Event) error { return nil }
