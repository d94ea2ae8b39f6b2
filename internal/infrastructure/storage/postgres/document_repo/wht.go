package document_repo

import (
	"context"
	"fmt"

	"charterbooks/internal/core/id"
	"charterbooks/internal/domain/documents"
	"charterbooks/internal/infrastructure/storage/postgres"
)

const whtRecordsTable = "acc_wht_records"

var whtColumns = []string{
	"id", "document_id", "line_id", "kind", "document_number", "document_date",
	"company_id", "client_id", "client_name", "description",
	"base_amount", "rate", "amount", "currency",
}

// WhtRepo keeps withholding-tax tracking records.
type WhtRepo struct {
	txManager *postgres.TxManager
	inserter  *postgres.BatchInserter
}

var (
	_ documents.WhtTracker   = (*WhtRepo)(nil)
	_ documents.WhtCanceller = (*WhtRepo)(nil)
)

// NewWhtRepo creates a new WHT record repository.
func NewWhtRepo(txManager *postgres.TxManager) *WhtRepo {
	return &WhtRepo{txManager: txManager, inserter: postgres.NewBatchInserter(txManager)}
}

// Exists reports whether pending records exist for the document.
func (r *WhtRepo) Exists(ctx context.Context, docID id.ID) (bool, error) {
	var exists bool
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM acc_wht_records WHERE document_id = $1 AND status = 'pending')
	`, docID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check wht records: %w", err)
	}
	return exists, nil
}

// CreateFromLines copies records in one transaction.
func (r *WhtRepo) CreateFromLines(ctx context.Context, docID id.ID, records []documents.WhtRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]any, len(records))
	for i, rec := range records {
		if rec.DocumentID != docID {
			return fmt.Errorf("wht record %d belongs to document %s, not %s", i, rec.DocumentID, docID)
		}
		rows[i] = []any{
			id.New(), rec.DocumentID, rec.LineID, rec.Kind, rec.DocumentNumber, rec.DocumentDate,
			rec.CompanyID, rec.ClientID, rec.ClientName, rec.Description,
			rec.BaseAmount, rec.Rate, rec.Amount, rec.Currency,
		}
	}

	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := r.inserter.CopyFromSlice(ctx, whtRecordsTable, whtColumns, rows)
		return err
	})
}

// Cancel marks the document's pending records cancelled.
func (r *WhtRepo) Cancel(ctx context.Context, docID id.ID) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE acc_wht_records
		SET status = 'cancelled', cancelled_at = NOW()
		WHERE document_id = $1 AND status = 'pending'
	`, docID)
	if err != nil {
		return fmt.Errorf("cancel wht records: %w", err)
	}
	return nil
}
