package document_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"charterbooks/internal/core/id"
	"charterbooks/internal/domain/documents"
	"charterbooks/internal/infrastructure/storage/postgres"
)

// Outbox event types emitted for the external ledger.
const (
	EventDocumentPosted   = "document.posted"
	EventDocumentReversed = "document.reversed"

	ledgerAggregate = "document"
)

// ReversalPayload is the body of a document.reversed event.
type ReversalPayload struct {
	DocumentID      id.ID  `json:"documentId"`
	ReferenceNumber string `json:"referenceNumber"`
	Reason          string `json:"reason"`
}

// LedgerOutbox records postings locally and hands them to the external ledger
// through the transactional outbox. The worker delivers the events.
type LedgerOutbox struct {
	txManager *postgres.TxManager
	outbox    *postgres.OutboxPublisher
}

var (
	_ documents.LedgerPoster   = (*LedgerOutbox)(nil)
	_ documents.PostingChecker = (*LedgerOutbox)(nil)
	_ documents.LedgerReverser = (*LedgerOutbox)(nil)
)

// NewLedgerOutbox creates a new ledger poster.
func NewLedgerOutbox(txManager *postgres.TxManager) *LedgerOutbox {
	return &LedgerOutbox{txManager: txManager, outbox: postgres.NewOutboxPublisher(txManager)}
}

// Post stores the posting and queues the document.posted event.
func (l *LedgerOutbox) Post(ctx context.Context, req documents.PostingRequest) (documents.PostingResult, error) {
	postingID := id.New()
	reference := referenceNumber(req, postingID)

	request, err := json.Marshal(req)
	if err != nil {
		return documents.PostingResult{}, fmt.Errorf("marshal posting: %w", err)
	}

	err = l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := l.txManager.GetQuerier(ctx).Exec(ctx, `
			INSERT INTO acc_ledger_postings (id, document_id, reference_number, request)
			VALUES ($1, $2, $3, $4)
		`, postingID, req.DocumentID, reference, request)
		if err != nil {
			return fmt.Errorf("insert posting: %w", err)
		}

		return l.outbox.Publish(ctx, postgres.DomainEvent{
			AggregateType: ledgerAggregate,
			AggregateID:   req.DocumentID,
			EventType:     EventDocumentPosted,
			Payload:       req,
		})
	})
	if err != nil {
		return documents.PostingResult{Success: false, Error: err.Error()}, err
	}

	return documents.PostingResult{Success: true, ReferenceNumber: reference}, nil
}

// HasPostings reports whether the document has a posting that was not reversed.
func (l *LedgerOutbox) HasPostings(ctx context.Context, docID id.ID) (bool, error) {
	var exists bool
	err := l.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM acc_ledger_postings WHERE document_id = $1 AND NOT reversed)
	`, docID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check postings: %w", err)
	}
	return exists, nil
}

// Reverse marks the document's live postings reversed and queues one
// document.reversed event per posting.
func (l *LedgerOutbox) Reverse(ctx context.Context, docID id.ID, reason string) error {
	return l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rows, err := l.txManager.GetQuerier(ctx).Query(ctx, `
			UPDATE acc_ledger_postings
			SET reversed = true, reverse_reason = $2, reversed_at = NOW()
			WHERE document_id = $1 AND NOT reversed
			RETURNING reference_number
		`, docID, reason)
		if err != nil {
			return fmt.Errorf("reverse postings: %w", err)
		}

		var references []string
		for rows.Next() {
			var ref string
			if err := rows.Scan(&ref); err != nil {
				rows.Close()
				return fmt.Errorf("scan reversed posting: %w", err)
			}
			references = append(references, ref)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("reverse postings: %w", err)
		}

		for _, ref := range references {
			err := l.outbox.Publish(ctx, postgres.DomainEvent{
				AggregateType: ledgerAggregate,
				AggregateID:   docID,
				EventType:     EventDocumentReversed,
				Payload:       ReversalPayload{DocumentID: docID, ReferenceNumber: ref, Reason: reason},
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// referenceNumber is "JV-<document number>-<8 hex of the posting id>".
func referenceNumber(req documents.PostingRequest, postingID id.ID) string {
	suffix := strings.ReplaceAll(postingID.String(), "-", "")
	suffix = suffix[len(suffix)-8:]
	if req.Number == "" {
		return "JV-" + strings.ToUpper(suffix)
	}
	return "JV-" + req.Number + "-" + strings.ToUpper(suffix)
}
