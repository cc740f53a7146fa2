package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SyncClient forwards completed tickets to an external system. Failures are
// the caller's to log; they never fail the booking.
type SyncClient interface {
	Sync(ctx context.Context, t *Ticket) error
}

// HTTPSync posts ticket payloads to a configured endpoint.
type HTTPSync struct {
	url    string
	client *http.Client
}

// NewHTTPSync builds a sync client with a bounded request timeout.
func NewHTTPSync(url string) *HTTPSync {
	return &HTTPSync{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Sync posts the ticket as JSON.
func (s *HTTPSync) Sync(ctx context.Context, t *Ticket) error {
	payload := struct {
		Action string `json:"action"`
		*Ticket
	}{Action: "create_booking", Ticket: t}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("booking: encode sync payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("booking: build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("booking: sync request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("booking: sync endpoint returned %d", resp.StatusCode)
	}
	return nil
}
