package documents

import (
	"context"
	"time"

	"charterbooks/internal/core/entity"
	"charterbooks/internal/core/id"
	"charterbooks/internal/core/types"
	"charterbooks/internal/domain"
	"charterbooks/internal/domain/fx"
	"charterbooks/internal/domain/pricing"
)

// Repository persists documents with their lines and payments.
type Repository interface {
	// Create inserts the header. A taken number yields apperror.CodeDuplicate.
	Create(ctx context.Context, doc *Document) error
	// Update writes the header with optimistic locking on Version.
	Update(ctx context.Context, doc *Document) error
	// GetByID loads the header with lines and payments.
	GetByID(ctx context.Context, docID id.ID) (*Document, error)
	// SaveLines replaces the document's lines.
	SaveLines(ctx context.Context, docID id.ID, lines []LineItem) error
	// SavePayments replaces the document's payment records.
	SavePayments(ctx context.Context, docID id.ID, payments []PaymentRecord) error
	// UpdateStatus changes the status and appends note to the internal notes.
	UpdateStatus(ctx context.Context, docID id.ID, status entity.Status, note string) error
	// Delete soft-deletes a document.
	Delete(ctx context.Context, docID id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Document], error)
}

// ListFilter for filtering documents.
type ListFilter struct {
	domain.ListFilter

	Kind      Kind
	CompanyID *id.ID
	ClientID  *id.ID
	Status    entity.Status
	DateFrom  *time.Time
	DateTo    *time.Time
}

// PostingLine is one line of a ledger posting request.
type PostingLine struct {
	LineNo      int         `json:"lineNo"`
	Description string      `json:"description"`
	AccountCode string      `json:"accountCode,omitempty"`
	ProjectID   *id.ID      `json:"projectId,omitempty"`
	Net         types.Money `json:"net"`
	Tax         types.Money `json:"tax"`
	Gross       types.Money `json:"gross"`
	Wht         types.Money `json:"wht"`
}

// PostingRequest summarizes a document for the ledger.
type PostingRequest struct {
	DocumentID     id.ID               `json:"documentId"`
	Kind           Kind                `json:"kind"`
	Number         string              `json:"number"`
	Date           time.Time           `json:"date"`
	CompanyID      id.ID               `json:"companyId"`
	ClientID       id.ID               `json:"clientId"`
	ClientName     string              `json:"clientName"`
	Currency       string              `json:"currency"`
	FxRate         *types.Money        `json:"fxRate,omitempty"`
	PricingType    pricing.PricingType `json:"pricingType"`
	Lines          []PostingLine       `json:"lines"`
	Subtotal       types.Money         `json:"subtotal"`
	TaxAmount      types.Money         `json:"taxAmount"`
	TotalAmount    types.Money         `json:"totalAmount"`
	WhtAmount      types.Money         `json:"whtAmount"`
	NetAmountToPay types.Money         `json:"netAmountToPay"`
	Payments       []PaymentRecord     `json:"payments,omitempty"`
	Adjustment     *PostingAdjustment  `json:"adjustment,omitempty"`
}

// PostingAdjustment is the receipt adjustment part of a posting.
type PostingAdjustment struct {
	Type        pricing.AdjustmentType `json:"type"`
	Amount      types.Money            `json:"amount"`
	AccountCode string                 `json:"accountCode"`
}

// PostingResult is the ledger's answer.
type PostingResult struct {
	Success         bool   `json:"success"`
	ReferenceNumber string `json:"referenceNumber,omitempty"`
	Error           string `json:"error,omitempty"`
}

// LedgerPoster submits posting requests to the ledger. Best-effort: failures
// never fail the save.
type LedgerPoster interface {
	Post(ctx context.Context, req PostingRequest) (PostingResult, error)
}

// PostingChecker is implemented by posters that can tell whether a document
// was already posted.
type PostingChecker interface {
	HasPostings(ctx context.Context, docID id.ID) (bool, error)
}

// LedgerReverser is implemented by posters that can reverse a document's postings on void.
type LedgerReverser interface {
	Reverse(ctx context.Context, docID id.ID, reason string) error
}

// WhtRecord is one withholding-tax tracking record, created per line with nonzero WHT.
type WhtRecord struct {
	DocumentID     id.ID           `json:"documentId"`
	LineID         id.ID           `json:"lineId"`
	Kind           Kind            `json:"kind"`
	DocumentNumber string          `json:"documentNumber"`
	DocumentDate   time.Time       `json:"documentDate"`
	CompanyID      id.ID           `json:"companyId"`
	ClientID       id.ID           `json:"clientId"`
	ClientName     string          `json:"clientName"`
	Description    string          `json:"description"`
	BaseAmount     types.Money     `json:"baseAmount"`
	Rate           pricing.WhtRate `json:"rate"`
	Amount         types.Money     `json:"amount"`
	Currency       string          `json:"currency"`
}

// WhtTracker stores withholding-tax tracking records.
type WhtTracker interface {
	Exists(ctx context.Context, docID id.ID) (bool, error)
	CreateFromLines(ctx context.Context, docID id.ID, records []WhtRecord) error
}

// WhtCanceller is implemented by trackers that can cancel records on void.
type WhtCanceller interface {
	Cancel(ctx context.Context, docID id.ID) error
}

// RateResolver attaches FX rates. Implemented by fx.Resolver.
type RateResolver interface {
	NeedsRate(currency string) bool
	Resolve(ctx context.Context, currency string, asOf time.Time, manual *types.Money) (*fx.Rate, error)
}

// AuditAction names an audited document event.
type AuditAction string

const (
	AuditCreate  AuditAction = "create"
	AuditUpdate  AuditAction = "update"
	AuditApprove AuditAction = "approve"
	AuditVoid    AuditAction = "void"
	AuditDelete  AuditAction = "delete"
)

// AuditEvent is one entry of the document audit trail.
type AuditEvent struct {
	DocumentID id.ID
	Kind       Kind
	Number     string
	Action     AuditAction
	From       entity.Status
	To         entity.Status
	Snapshot   *Document
}

// Auditor writes the audit trail. Best-effort.
type Auditor interface {
	Record(ctx context.Context, event AuditEvent) error
}

var _ RateResolver = (*fx.Resolver)(nil)
