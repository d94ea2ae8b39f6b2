// Package ledger delivers outbox events to the external ledger service.
package ledger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"charterbooks/internal/infrastructure/storage/postgres"
)

// DefaultTimeout bounds one delivery.
const DefaultTimeout = 15 * time.Second

// Headers sent with every delivery.
const (
	HeaderEventID     = "X-Event-ID"
	HeaderEventType   = "X-Event-Type"
	HeaderAggregateID = "X-Aggregate-ID"
	// HeaderIdempotency lets the ledger drop redeliveries of the same event.
	HeaderIdempotency = "Idempotency-Key"
)

// WebhookHandler POSTs the event payload to the ledger URL.
// Any non-2xx answer is a failed delivery and is retried by the relay.
type WebhookHandler struct {
	url    string
	client *http.Client
}

var _ postgres.OutboxHandler = (*WebhookHandler)(nil)

// NewWebhookHandler creates a handler for url. A nil client gets DefaultTimeout.
func NewWebhookHandler(url string, client *http.Client) *WebhookHandler {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &WebhookHandler{url: url, client: client}
}

// Handle implements postgres.OutboxHandler.
func (h *WebhookHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(msg.Payload))
	if err != nil {
		return fmt.Errorf("build ledger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEventID, msg.ID.String())
	req.Header.Set(HeaderEventType, msg.EventType)
	req.Header.Set(HeaderAggregateID, msg.AggregateID.String())
	req.Header.Set(HeaderIdempotency, msg.ID.String())

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver %s: %w", msg.EventType, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ledger answered %d for %s: %s", resp.StatusCode, msg.EventType, bytes.TrimSpace(body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
