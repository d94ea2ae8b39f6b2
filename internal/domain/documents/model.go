package documents

import (
	"strings"
	"time"

	"charterbooks/internal/core/entity"
	"charterbooks/internal/core/id"
	"charterbooks/internal/core/types"
	"charterbooks/internal/domain/fx"
	"charterbooks/internal/domain/pricing"
)

// Document is an invoice, receipt, credit note or debit note.
type Document struct {
	entity.Document

	Kind Kind `db:"kind" json:"kind"`

	ClientID   id.ID  `db:"client_id" json:"clientId"`
	ClientName string `db:"client_name" json:"clientName"`

	// DueDate is only used by invoices
	DueDate *time.Time `db:"due_date" json:"dueDate,omitempty"`

	// FX fields are present only when Currency differs from the base currency.
	Currency     string       `db:"currency" json:"currency"`
	FxRate       *types.Money `db:"fx_rate" json:"fxRate,omitempty"`
	FxRateSource fx.Source    `db:"fx_rate_source" json:"fxRateSource,omitempty"`
	FxRateDate   *time.Time   `db:"fx_rate_date" json:"fxRateDate,omitempty"`

	PricingType pricing.PricingType `db:"pricing_type" json:"pricingType"`

	// Derived aggregates, recomputed by Recalculate
	Subtotal       types.Money  `db:"subtotal" json:"subtotal"`
	TaxAmount      types.Money  `db:"tax_amount" json:"taxAmount"`
	TotalAmount    types.Money  `db:"total_amount" json:"totalAmount"`
	WhtAmount      types.Money  `db:"wht_amount" json:"whtAmount"`
	NetAmountToPay types.Money  `db:"net_amount_to_pay" json:"netAmountToPay"`
	BaseTotal      *types.Money `db:"base_total_amount" json:"baseTotalAmount,omitempty"`

	// Receipt adjustment (bank fees, rounding)
	AdjustmentType        pricing.AdjustmentType `db:"adjustment_type" json:"adjustmentType"`
	AdjustmentAmount      types.Money            `db:"adjustment_amount" json:"adjustmentAmount"`
	AdjustmentAccountCode string                 `db:"adjustment_account_code" json:"adjustmentAccountCode,omitempty"`

	// Credit and debit notes point at the document they correct
	ReferenceDocumentID *id.ID `db:"reference_document_id" json:"referenceDocumentId,omitempty"`
	Reason              string `db:"reason" json:"reason,omitempty"`

	Lines    []LineItem      `db:"-" json:"lineItems"`
	Payments []PaymentRecord `db:"-" json:"payments,omitempty"`
}

// LineItem is one row of the document. Amount and WhtAmount are derived.
type LineItem struct {
	ID     id.ID `db:"line_id" json:"id"`
	LineNo int   `db:"line_no" json:"lineNo"`

	Description     string          `db:"description" json:"description"`
	Quantity        types.Money     `db:"quantity" json:"quantity"`
	UnitPrice       types.Money     `db:"unit_price" json:"unitPrice"`
	TaxRate         types.Money     `db:"tax_rate" json:"taxRate"`
	WhtRate         pricing.WhtRate `db:"wht_rate" json:"whtRate"`
	CustomWhtAmount *types.Money    `db:"custom_wht_amount" json:"customWhtAmount,omitempty"`

	Amount    types.Money `db:"amount" json:"amount"`
	WhtAmount types.Money `db:"wht_amount" json:"whtAmount"`

	AccountCode string `db:"account_code" json:"accountCode,omitempty"`
	ProjectID   *id.ID `db:"project_id" json:"projectId,omitempty"`
}

// PaymentRecord is one incoming payment on a receipt.
type PaymentRecord struct {
	ID     id.ID `db:"payment_id" json:"id"`
	LineNo int   `db:"line_no" json:"lineNo"`

	Amount types.Money `db:"amount" json:"amount"`
	Date   time.Time   `db:"paid_at" json:"date"`
	// ReceivedAt is the destination bank or cash account code
	ReceivedAt string `db:"received_at" json:"receivedAt"`
	Remark     string `db:"remark" json:"remark,omitempty"`
}

// NewDocument creates a draft of kind for a company.
func NewDocument(kind Kind, companyID id.ID) *Document {
	return &Document{
		Document:       entity.NewDocument(companyID),
		Kind:           kind,
		PricingType:    pricing.ExcludeVAT,
		AdjustmentType: pricing.AdjustmentNone,
		Lines:          make([]LineItem, 0),
	}
}

// IsEmpty reports whether the line carries neither a description nor a positive price.
// Empty lines are placeholders and are exempt from the project rule.
func (l LineItem) IsEmpty() bool {
	return strings.TrimSpace(l.Description) == "" && !l.UnitPrice.IsPositive()
}

// HasProject reports whether a project is assigned.
func (l LineItem) HasProject() bool {
	return l.ProjectID != nil && !id.IsNil(*l.ProjectID)
}

func (l LineItem) calc() pricing.Line {
	return pricing.Line{
		Quantity:        l.Quantity,
		UnitPrice:       l.UnitPrice,
		TaxRate:         l.TaxRate,
		WhtRate:         l.WhtRate,
		CustomWhtAmount: l.CustomWhtAmount,
	}
}

// Breakdown returns the rounded net/tax/gross/WHT split of the line.
func (l LineItem) Breakdown(pricingType pricing.PricingType) pricing.Breakdown {
	return pricing.LineBreakdown(l.calc(), pricingType)
}

// Recalculate recomputes every derived field from the lines, the pricing type,
// the adjustment and the FX rate. Line amounts are never taken from input.
func (d *Document) Recalculate() {
	lines := make([]pricing.Line, len(d.Lines))
	for i := range d.Lines {
		line := &d.Lines[i]
		line.LineNo = i + 1
		if id.IsNil(line.ID) {
			line.ID = id.New()
		}
		if line.WhtRate == "" {
			line.WhtRate = pricing.WhtNone
		}
		line.Amount = pricing.LineAmount(line.Quantity, line.UnitPrice, line.TaxRate, d.PricingType)
		line.WhtAmount = pricing.LineWht(line.calc(), d.PricingType)
		lines[i] = line.calc()
	}

	totals := pricing.DocumentTotals(lines, d.PricingType)
	d.Subtotal = totals.Subtotal
	d.TaxAmount = totals.TaxAmount
	d.TotalAmount = totals.TotalAmount
	d.WhtAmount = pricing.DocumentWht(lines, d.PricingType)

	if d.AdjustmentType == "" {
		d.AdjustmentType = pricing.AdjustmentNone
	}
	d.NetAmountToPay = pricing.AdjustedNet(
		pricing.NetAmountToPay(totals, d.WhtAmount), d.AdjustmentType, d.AdjustmentAmount)

	for i := range d.Payments {
		d.Payments[i].LineNo = i + 1
		if id.IsNil(d.Payments[i].ID) {
			d.Payments[i].ID = id.New()
		}
	}

	d.BaseTotal = nil
	if d.FxRate != nil && d.FxRate.IsPositive() {
		base := pricing.ToBase(d.TotalAmount, *d.FxRate)
		d.BaseTotal = &base
	}
}

// Totals returns the aggregates as a pricing.Totals value.
func (d *Document) Totals() pricing.Totals {
	return pricing.Totals{Subtotal: d.Subtotal, TaxAmount: d.TaxAmount, TotalAmount: d.TotalAmount}
}

// PaidAmount sums the payment records.
func (d *Document) PaidAmount() types.Money {
	total := types.Zero()
	for _, p := range d.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// HasWht reports whether any line carries nonzero withholding.
func (d *Document) HasWht() bool {
	for _, l := range d.Lines {
		if !l.WhtAmount.IsZero() {
			return true
		}
	}
	return false
}

// clearFx removes the rate fields.
func (d *Document) clearFx() {
	d.FxRate = nil
	d.FxRateSource = ""
	d.FxRateDate = nil
}

// Summary is the calculation preview of a document.
type Summary struct {
	Lines          []LineSummary `json:"lines"`
	Subtotal       types.Money   `json:"subtotal"`
	TaxAmount      types.Money   `json:"taxAmount"`
	TotalAmount    types.Money   `json:"totalAmount"`
	WhtAmount      types.Money   `json:"whtAmount"`
	NetAmountToPay types.Money   `json:"netAmountToPay"`
	BaseTotal      *types.Money  `json:"baseTotalAmount,omitempty"`
}

// LineSummary is the per-line part of a Summary.
type LineSummary struct {
	LineNo int         `json:"lineNo"`
	Amount types.Money `json:"amount"`
	Net    types.Money `json:"net"`
	Tax    types.Money `json:"tax"`
	Wht    types.Money `json:"wht"`
}

// Summarize recalculates d and returns the preview.
func (d *Document) Summarize() Summary {
	d.Recalculate()
	s := Summary{
		Lines:          make([]LineSummary, len(d.Lines)),
		Subtotal:       d.Subtotal,
		TaxAmount:      d.TaxAmount,
		TotalAmount:    d.TotalAmount,
		WhtAmount:      d.WhtAmount,
		NetAmountToPay: d.NetAmountToPay,
		BaseTotal:      d.BaseTotal,
	}
	for i, l := range d.Lines {
		b := l.Breakdown(d.PricingType)
		s.Lines[i] = LineSummary{LineNo: l.LineNo, Amount: l.Amount, Net: b.Net, Tax: b.Tax, Wht: b.Wht}
	}
	return s
}
