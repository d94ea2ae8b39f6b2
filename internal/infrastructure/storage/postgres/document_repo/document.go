package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"charterbooks/internal/core/apperror"
	"charterbooks/internal/core/entity"
	"charterbooks/internal/core/id"
	"charterbooks/internal/domain"
	"charterbooks/internal/domain/documents"
	"charterbooks/internal/infrastructure/storage/postgres"
)

const (
	documentsTable        = "doc_documents"
	documentLinesTable    = "doc_document_lines"
	documentPaymentsTable = "doc_document_payments"

	// numberConstraint guards (company_id, kind, number) among live documents
	numberConstraint = "ux_doc_documents_number"
)

var (
	lineColumns = []string{
		"line_id", "line_no", "description", "quantity", "unit_price", "tax_rate",
		"wht_rate", "custom_wht_amount", "amount", "wht_amount", "account_code", "project_id",
	}
	paymentColumns = []string{
		"payment_id", "line_no", "amount", "paid_at", "received_at", "remark",
	}
)

// DocumentRepo implements documents.Repository over doc_documents and its
// line and payment tables.
type DocumentRepo struct {
	*BaseDocumentRepo[*documents.Document]
}

var _ documents.Repository = (*DocumentRepo)(nil)

// NewDocumentRepo creates a new document repository.
func NewDocumentRepo(txManager *postgres.TxManager) *DocumentRepo {
	return &DocumentRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			documentsTable,
			postgres.ExtractDBColumns[documents.Document](),
			func() *documents.Document { return &documents.Document{} },
		),
	}
}

// Create inserts the header and sets Version to 1. A number already held by a
// live document of the same company and kind yields apperror.CodeDuplicate.
func (r *DocumentRepo) Create(ctx context.Context, doc *documents.Document) error {
	doc.Version = 1
	if err := r.insert(ctx, doc); err != nil {
		doc.Version = 0
		return mapNumberConflict(err, doc)
	}
	return nil
}

// Update writes the header if Version matches the stored one, then bumps Version.
func (r *DocumentRepo) Update(ctx context.Context, doc *documents.Document) error {
	version, err := r.update(ctx, doc, doc.ID, doc.Version)
	if err != nil {
		return mapNumberConflict(err, doc)
	}
	doc.Version = version
	return nil
}

func mapNumberConflict(err error, doc *documents.Document) error {
	if isUniqueViolation(err, numberConstraint) {
		return apperror.NewDuplicate(string(doc.Kind), "number", doc.Number).WithCause(err)
	}
	return err
}

// GetByID loads the header, lines and payments from one snapshot.
func (r *DocumentRepo) GetByID(ctx context.Context, docID id.ID) (*documents.Document, error) {
	var doc *documents.Document

	err := r.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		if doc, err = r.getByID(ctx, docID); err != nil {
			return err
		}
		if doc.Lines, err = r.getLines(ctx, docID); err != nil {
			return err
		}
		doc.Payments, err = r.getPayments(ctx, docID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepo) getLines(ctx context.Context, docID id.ID) ([]documents.LineItem, error) {
	sql, args, err := r.Builder().
		Select(lineColumns...).
		From(documentLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	lines := make([]documents.LineItem, 0)
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

func (r *DocumentRepo) getPayments(ctx context.Context, docID id.ID) ([]documents.PaymentRecord, error) {
	sql, args, err := r.Builder().
		Select(paymentColumns...).
		From(documentPaymentsTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var payments []documents.PaymentRecord
	if err := pgxscan.Select(ctx, r.querier(ctx), &payments, sql, args...); err != nil {
		return nil, fmt.Errorf("get payments: %w", err)
	}
	return payments, nil
}

// SaveLines replaces the document's lines (delete existing + insert new).
func (r *DocumentRepo) SaveLines(ctx context.Context, docID id.ID, lines []documents.LineItem) error {
	if _, err := r.querier(ctx).Exec(ctx, "DELETE FROM "+documentLinesTable+" WHERE document_id = $1", docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().Insert(documentLinesTable).Columns(append([]string{"document_id"}, lineColumns...)...)
	for _, l := range lines {
		q = q.Values(
			docID, l.ID, l.LineNo, l.Description, l.Quantity, l.UnitPrice, l.TaxRate,
			l.WhtRate, l.CustomWhtAmount, l.Amount, l.WhtAmount, l.AccountCode, l.ProjectID,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

// SavePayments replaces the document's payment records.
func (r *DocumentRepo) SavePayments(ctx context.Context, docID id.ID, payments []documents.PaymentRecord) error {
	if _, err := r.querier(ctx).Exec(ctx, "DELETE FROM "+documentPaymentsTable+" WHERE document_id = $1", docID); err != nil {
		return fmt.Errorf("delete existing payments: %w", err)
	}
	if len(payments) == 0 {
		return nil
	}

	q := r.Builder().Insert(documentPaymentsTable).Columns(append([]string{"document_id"}, paymentColumns...)...)
	for _, p := range payments {
		q = q.Values(docID, p.ID, p.LineNo, p.Amount, p.Date, p.ReceivedAt, p.Remark)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert payments: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payments: %w", err)
	}
	return nil
}

// UpdateStatus sets the status and appends note to internal_notes.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, docID id.ID, status entity.Status, note string) error {
	q := r.Builder().
		Update(documentsTable).
		Set("status", status).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": docID, "deletion_mark": false})
	if note != "" {
		q = q.Set("internal_notes", squirrel.Expr(
			"CASE WHEN internal_notes = '' THEN ? ELSE internal_notes || E'\\n' || ? END", note, note))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update status: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(documentsTable, docID.String())
	}
	return nil
}

// List returns document headers without lines.
func (r *DocumentRepo) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*documents.Document], error) {
	return r.list(ctx, r.listQuery(filter), filter.ListFilter)
}

func (r *DocumentRepo) listQuery(filter documents.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Kind != "" {
		q = q.Where(squirrel.Eq{"kind": filter.Kind})
	}
	if filter.CompanyID != nil {
		q = q.Where(squirrel.Eq{"company_id": *filter.CompanyID})
	}
	if filter.ClientID != nil {
		q = q.Where(squirrel.Eq{"client_id": *filter.ClientID})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": dateOnly(*filter.DateFrom)})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": dateOnly(*filter.DateTo)})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"client_name": pattern},
		})
	}
	return q
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
