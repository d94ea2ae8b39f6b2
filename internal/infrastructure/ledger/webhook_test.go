package ledger

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charterbooks/internal/core/id"
	"charterbooks/internal/infrastructure/storage/postgres"
)

func TestWebhookHandler_Delivers(t *testing.T) {
	msg := &postgres.OutboxMessage{
		ID:          id.New(),
		AggregateID: id.New(),
		EventType:   "document.posted",
		Payload:     []byte(`{"number":"INV-2026-00001"}`),
	}

	var got *http.Request
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	err := NewWebhookHandler(srv.URL, srv.Client()).Handle(context.Background(), msg)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "document.posted", got.Header.Get(HeaderEventType))
	assert.Equal(t, msg.ID.String(), got.Header.Get(HeaderIdempotency))
	assert.Equal(t, msg.AggregateID.String(), got.Header.Get(HeaderAggregateID))
	assert.JSONEq(t, `{"number":"INV-2026-00001"}`, string(body))
}

func TestWebhookHandler_Non2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "period closed", http.StatusConflict)
	}))
	defer srv.Close()

	err := NewWebhookHandler(srv.URL, srv.Client()).Handle(context.Background(), &postgres.OutboxMessage{
		ID:        id.New(),
		EventType: "document.reversed",
		Payload:   []byte(`{}`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), "period closed")
}

func TestWebhookHandler_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewWebhookHandler(url, nil).Handle(context.Background(), &postgres.OutboxMessage{ID: id.New(), Payload: []byte(`{}`)})
	assert.Error(t, err)
}
