package entity

import (
	"strings"
	"time"

	"charterbooks/internal/core/id"
)

// Status is the lifecycle state of a financial document.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusIssued Status = "issued"
	StatusPaid   Status = "paid"
	StatusVoid   Status = "void"
)

// IsActive reports whether the status is the issued-equivalent state
// (issued for invoices and notes, paid for receipts).
func (s Status) IsActive() bool {
	return s == StatusIssued || s == StatusPaid
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusIssued, StatusPaid, StatusVoid:
		return true
	}
	return false
}

// Document is the base type for financial documents (invoice, receipt, notes).
type Document struct {
	BaseDocument

	// Number is the human-facing sequence, unique per company+type while active
	Number string `db:"number" json:"number"`

	// NumberAutoAssigned is true when Number came from the numbering service.
	// Only such numbers are returned to the pool on void.
	NumberAutoAssigned bool `db:"number_auto_assigned" json:"numberAutoAssigned"`

	// Date is the issue date (invoiceDate, receiptDate, ...)
	Date time.Time `db:"date" json:"date"`

	// CompanyID is the issuing company
	CompanyID id.ID `db:"company_id" json:"companyId"`

	Status Status `db:"status" json:"status"`

	// InternalNotes is never printed; void reasons are appended here
	InternalNotes string `db:"internal_notes" json:"internalNotes,omitempty"`
}

// NewDocument creates a new draft Document with generated ID.
func NewDocument(companyID id.ID) Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
		CompanyID:    companyID,
		Status:       StatusDraft,
	}
}

// IsVoid reports whether the document reached its terminal state.
func (d *Document) IsVoid() bool {
	return d.Status == StatusVoid
}

// AppendNote adds a line to the internal notes.
func (d *Document) AppendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if d.InternalNotes == "" {
		d.InternalNotes = note
		return
	}
	d.InternalNotes += "\n" + note
}
