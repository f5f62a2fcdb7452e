package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// RunIDHeader carries the run id so the generator side can correlate logs.
const RunIDHeader = "X-Run-ID"

var ErrNoEndpoint = errors.New("generation webhook URL is not configured")

// TransportError is returned when the generator endpoint could not be
// reached or answered with a non-2xx status.
type TransportError struct {
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("generation endpoint unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Dispatcher hands a payload to the external generator. A nil error only
// means the request was accepted, not that generation will succeed.
type Dispatcher interface {
	Dispatch(ctx context.Context, runID string, payload Payload) error
}

// WebhookDispatcher posts payloads as JSON to a fixed URL. It never retries.
type WebhookDispatcher struct {
	url    string
	client *http.Client
}

// NewWebhookDispatcher creates a dispatcher. A nil client uses
// http.DefaultClient.
func NewWebhookDispatcher(url string, client *http.Client) *WebhookDispatcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookDispatcher{url: url, client: client}
}

// Dispatch sends one POST. The response body is ignored.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, runID string, payload Payload) error {
	if d.url == "" {
		return &TransportError{Err: ErrNoEndpoint}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode generation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if runID != "" {
		req.Header.Set(RunIDHeader, runID)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}
	return nil
}
