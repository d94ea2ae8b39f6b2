package dto

import (
	"fmt"
	"strings"
	"time"

	"charterbooks/internal/core/apperror"
	"charterbooks/internal/core/entity"
	"charterbooks/internal/core/id"
	"charterbooks/internal/core/types"
	"charterbooks/internal/domain/documents"
	"charterbooks/internal/domain/fx"
	"charterbooks/internal/domain/pricing"
)

// --- Request DTOs ---

// SaveDocumentRequest is the body of create and update calls.
// Status is the target status; Issue is a shortcut for the kind's active status.
type SaveDocumentRequest struct {
	Status string `json:"status,omitempty"`
	Issue  bool   `json:"issue,omitempty"`

	// Version must match the stored version on update
	Version int `json:"version,omitempty"`

	Number     string     `json:"number,omitempty"`
	Date       time.Time  `json:"date"`
	CompanyID  string     `json:"companyId"`
	ClientID   string     `json:"clientId"`
	ClientName string     `json:"clientName"`
	DueDate    *time.Time `json:"dueDate,omitempty"`

	Currency string       `json:"currency,omitempty"`
	FxRate   *types.Money `json:"fxRate,omitempty"`
	// FxRateSource tags an echoed rate; a rate without a source is a manual override
	FxRateSource string `json:"fxRateSource,omitempty"`

	PricingType string `json:"pricingType,omitempty"`

	AdjustmentType        string      `json:"adjustmentType,omitempty"`
	AdjustmentAmount      types.Money `json:"adjustmentAmount"`
	AdjustmentAccountCode string      `json:"adjustmentAccountCode,omitempty"`

	ReferenceDocumentID string `json:"referenceDocumentId,omitempty"`
	Reason              string `json:"reason,omitempty"`
	InternalNotes       string `json:"internalNotes,omitempty"`

	LineItems []LineItemRequest `json:"lineItems"`
	Payments  []PaymentRequest  `json:"payments,omitempty"`
}

// LineItemRequest is one line of a save request.
type LineItemRequest struct {
	ID              string       `json:"id,omitempty"`
	Description     string       `json:"description"`
	Quantity        types.Money  `json:"quantity"`
	UnitPrice       types.Money  `json:"unitPrice"`
	TaxRate         types.Money  `json:"taxRate"`
	WhtRate         string       `json:"whtRate,omitempty"`
	CustomWhtAmount *types.Money `json:"customWhtAmount,omitempty"`
	AccountCode     string       `json:"accountCode,omitempty"`
	ProjectID       string       `json:"projectId,omitempty"`
}

// PaymentRequest is one payment record of a receipt.
type PaymentRequest struct {
	ID         string      `json:"id,omitempty"`
	Amount     types.Money `json:"amount"`
	Date       time.Time   `json:"date"`
	ReceivedAt string      `json:"receivedAt"`
	Remark     string      `json:"remark,omitempty"`
}

// TargetStatus resolves the requested status for kind. Empty means draft.
// Void is refused: documents are voided through the void action only.
func (r *SaveDocumentRequest) TargetStatus(kind documents.Kind) (entity.Status, error) {
	if r.Issue {
		return kind.ActiveStatus(), nil
	}
	if r.Status == "" {
		return entity.StatusDraft, nil
	}
	status := entity.Status(strings.ToLower(r.Status))
	if !status.IsValid() {
		return "", apperror.NewValidation("invalid status").WithDetail("status", r.Status)
	}
	if status == entity.StatusVoid {
		return "", apperror.NewValidation("use the void action to void a document").WithDetail("status", r.Status)
	}
	return status, nil
}

// ToDocument converts the request to a document of kind. Malformed ids and
// enum values are reported together as field errors.
func (r *SaveDocumentRequest) ToDocument(kind documents.Kind) (*documents.Document, error) {
	errs := apperror.FieldErrors{}

	companyID := parseID(errs, "companyId", r.CompanyID)
	doc := documents.NewDocument(kind, companyID)

	doc.Version = r.Version
	doc.Number = strings.TrimSpace(r.Number)
	doc.Date = r.Date
	doc.ClientID = parseID(errs, "clientId", r.ClientID)
	doc.ClientName = strings.TrimSpace(r.ClientName)
	doc.DueDate = r.DueDate
	doc.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	doc.InternalNotes = r.InternalNotes
	doc.Reason = r.Reason

	if r.FxRate != nil {
		rate := *r.FxRate
		doc.FxRate = &rate
		doc.FxRateSource = fx.SourceManual
		if r.FxRateSource != "" {
			source := fx.Source(strings.ToLower(strings.TrimSpace(r.FxRateSource)))
			if !source.IsValid() {
				errs.Add("fxRateSource", "Unknown rate source")
			}
			doc.FxRateSource = source
		}
	}

	if r.PricingType != "" {
		pt, err := pricing.ParsePricingType(r.PricingType)
		if err != nil {
			errs.Add("pricingType", err.Error())
		}
		doc.PricingType = pt
	}
	if r.AdjustmentType != "" {
		at, err := pricing.ParseAdjustmentType(r.AdjustmentType)
		if err != nil {
			errs.Add("adjustmentType", err.Error())
		}
		doc.AdjustmentType = at
	}
	doc.AdjustmentAmount = r.AdjustmentAmount
	doc.AdjustmentAccountCode = r.AdjustmentAccountCode

	if r.ReferenceDocumentID != "" {
		ref := parseID(errs, "referenceDocumentId", r.ReferenceDocumentID)
		doc.ReferenceDocumentID = &ref
	}

	doc.Lines = make([]documents.LineItem, len(r.LineItems))
	for i, l := range r.LineItems {
		field := fmt.Sprintf("lineItems[%d]", i)
		line := documents.LineItem{
			Description:     l.Description,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			TaxRate:         l.TaxRate,
			CustomWhtAmount: l.CustomWhtAmount,
			AccountCode:     l.AccountCode,
		}
		if l.ID != "" {
			line.ID = parseID(errs, field+".id", l.ID)
		}
		if l.WhtRate != "" {
			rate, err := pricing.ParseWhtRate(l.WhtRate)
			if err != nil {
				errs.Add(field+".whtRate", err.Error())
			}
			line.WhtRate = rate
		}
		if l.ProjectID != "" {
			project := parseID(errs, field+".projectId", l.ProjectID)
			line.ProjectID = &project
		}
		doc.Lines[i] = line
	}

	doc.Payments = make([]documents.PaymentRecord, len(r.Payments))
	for i, p := range r.Payments {
		payment := documents.PaymentRecord{
			Amount:     p.Amount,
			Date:       p.Date,
			ReceivedAt: p.ReceivedAt,
			Remark:     p.Remark,
		}
		if p.ID != "" {
			payment.ID = parseID(errs, fmt.Sprintf("payments[%d].id", i), p.ID)
		}
		doc.Payments[i] = payment
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

func parseID(errs apperror.FieldErrors, field, value string) id.ID {
	value = strings.TrimSpace(value)
	if value == "" {
		return id.Nil()
	}
	parsed, err := id.Parse(value)
	if err != nil {
		errs.Add(field, "Invalid id")
		return id.Nil()
	}
	return parsed
}

// DocumentListQuery are the query parameters of the list endpoint.
type DocumentListQuery struct {
	PaginationRequest
	CompanyID string     `form:"companyId"`
	ClientID  string     `form:"clientId"`
	Status    string     `form:"status"`
	DateFrom  *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo    *time.Time `form:"dateTo" time_format:"2006-01-02"`
}

// ToFilter converts the query to a documents filter.
func (q DocumentListQuery) ToFilter(kind documents.Kind) (documents.ListFilter, error) {
	errs := apperror.FieldErrors{}
	filter := documents.ListFilter{
		ListFilter: q.ToListFilter(),
		Kind:       kind,
		DateFrom:   q.DateFrom,
		DateTo:     q.DateTo,
	}
	if q.CompanyID != "" {
		companyID := parseID(errs, "companyId", q.CompanyID)
		filter.CompanyID = &companyID
	}
	if q.ClientID != "" {
		clientID := parseID(errs, "clientId", q.ClientID)
		filter.ClientID = &clientID
	}
	if q.Status != "" {
		filter.Status = entity.Status(strings.ToLower(q.Status))
		if !filter.Status.IsValid() {
			errs.Add("status", "Unknown status")
		}
	}
	if err := errs.Err(); err != nil {
		return documents.ListFilter{}, err
	}
	return filter, nil
}

// --- Response DTOs ---

// DocumentResponse is a document as returned by the API.
type DocumentResponse struct {
	ID                 string    `json:"id"`
	Version            int       `json:"version"`
	Kind               string    `json:"kind"`
	Number             string    `json:"number"`
	NumberAutoAssigned bool      `json:"numberAutoAssigned"`
	Status             string    `json:"status"`
	Date               string    `json:"date"`
	CompanyID          string    `json:"companyId"`
	ClientID           string    `json:"clientId"`
	ClientName         string    `json:"clientName"`
	DueDate            *string   `json:"dueDate,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`

	Currency     string       `json:"currency"`
	FxRate       *types.Money `json:"fxRate,omitempty"`
	FxRateSource string       `json:"fxRateSource,omitempty"`
	FxRateDate   *string      `json:"fxRateDate,omitempty"`

	PricingType    string       `json:"pricingType"`
	Subtotal       types.Money  `json:"subtotal"`
	TaxAmount      types.Money  `json:"taxAmount"`
	TotalAmount    types.Money  `json:"totalAmount"`
	WhtAmount      types.Money  `json:"whtAmount"`
	NetAmountToPay types.Money  `json:"netAmountToPay"`
	BaseTotal      *types.Money `json:"baseTotalAmount,omitempty"`

	AdjustmentType        string      `json:"adjustmentType"`
	AdjustmentAmount      types.Money `json:"adjustmentAmount"`
	AdjustmentAccountCode string      `json:"adjustmentAccountCode,omitempty"`

	ReferenceDocumentID *string `json:"referenceDocumentId,omitempty"`
	Reason              string  `json:"reason,omitempty"`
	InternalNotes       string  `json:"internalNotes,omitempty"`

	LineItems []documents.LineItem      `json:"lineItems"`
	Payments  []documents.PaymentRecord `json:"payments,omitempty"`
}

// FromDocument creates a DocumentResponse from a documents.Document.
func FromDocument(d *documents.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:                    d.ID.String(),
		Version:               d.Version,
		Kind:                  string(d.Kind),
		Number:                d.Number,
		NumberAutoAssigned:    d.NumberAutoAssigned,
		Status:                string(d.Status),
		Date:                  d.Date.Format(time.DateOnly),
		CompanyID:             d.CompanyID.String(),
		ClientID:              d.ClientID.String(),
		ClientName:            d.ClientName,
		DueDate:               formatDate(d.DueDate),
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
		Currency:              d.Currency,
		FxRate:                d.FxRate,
		FxRateSource:          string(d.FxRateSource),
		FxRateDate:            formatDate(d.FxRateDate),
		PricingType:           string(d.PricingType),
		Subtotal:              d.Subtotal,
		TaxAmount:             d.TaxAmount,
		TotalAmount:           d.TotalAmount,
		WhtAmount:             d.WhtAmount,
		NetAmountToPay:        d.NetAmountToPay,
		BaseTotal:             d.BaseTotal,
		AdjustmentType:        string(d.AdjustmentType),
		AdjustmentAmount:      d.AdjustmentAmount,
		AdjustmentAccountCode: d.AdjustmentAccountCode,
		Reason:                d.Reason,
		InternalNotes:         d.InternalNotes,
		LineItems:             d.Lines,
		Payments:              d.Payments,
	}
	if resp.LineItems == nil {
		resp.LineItems = []documents.LineItem{}
	}
	if d.ReferenceDocumentID != nil {
		ref := d.ReferenceDocumentID.String()
		resp.ReferenceDocumentID = &ref
	}
	return resp
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}

// SaveResponse is returned by save and approve.
type SaveResponse struct {
	Document          DocumentResponse         `json:"document"`
	Warnings          []documents.Warning      `json:"warnings,omitempty"`
	Posting           *documents.PostingResult `json:"posting,omitempty"`
	WhtRecordsCreated int                      `json:"whtRecordsCreated"`
}

// FromSaveResult creates a SaveResponse.
func FromSaveResult(r *documents.SaveResult) SaveResponse {
	return SaveResponse{
		Document:          FromDocument(r.Document),
		Warnings:          r.Warnings,
		Posting:           r.Posting,
		WhtRecordsCreated: r.WhtCreated,
	}
}

// VoidResponse is returned by void.
type VoidResponse struct {
	Document DocumentResponse    `json:"document"`
	Recycled bool                `json:"numberRecycled"`
	Warnings []documents.Warning `json:"warnings,omitempty"`
}

// FromVoidResult creates a VoidResponse.
func FromVoidResult(r *documents.VoidResult) VoidResponse {
	return VoidResponse{
		Document: FromDocument(r.Document),
		Recycled: r.Recycled,
		Warnings: r.Warnings,
	}
}

// CalculateRequest previews totals for an unsaved document.
type CalculateRequest struct {
	Kind string `json:"kind,omitempty"`
	SaveDocumentRequest
}

// FxRateResponse is the body of the rate lookup.
type FxRateResponse struct {
	Currency string      `json:"currency"`
	Base     string      `json:"base"`
	Rate     types.Money `json:"rate"`
	Source   string      `json:"source"`
	Date     string      `json:"date"`
}

// FromRate creates an FxRateResponse.
func FromRate(currency, base string, r *fx.Rate) FxRateResponse {
	return FxRateResponse{
		Currency: currency,
		Base:     base,
		Rate:     r.Value,
		Source:   string(r.Source),
		Date:     r.Date.Format(time.DateOnly),
	}
}
