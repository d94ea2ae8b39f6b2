// Package documents implements the invoice, receipt, credit note and debit note
// lifecycle: calculation, validation, numbering and save-time side effects.
package documents

import (
	"fmt"
	"strings"

	"charterbooks/internal/core/entity"
	"charterbooks/internal/core/id"
	"charterbooks/internal/core/numerator"
)

// Kind is the document type.
type Kind string

const (
	KindInvoice    Kind = "invoice"
	KindReceipt    Kind = "receipt"
	KindCreditNote Kind = "credit_note"
	KindDebitNote  Kind = "debit_note"
)

// KindRules captures how one document type differs from the others.
type KindRules struct {
	// ActiveStatus is the issued-equivalent status of the kind.
	ActiveStatus entity.Status
	// Prefix is the numbering prefix.
	Prefix string
	// ProjectOnDraft requires a project on non-empty lines even while in draft.
	ProjectOnDraft bool
	// RequiresPayments requires at least one complete payment record to leave draft.
	RequiresPayments bool
	// HasDueDate allows a due date on the header.
	HasDueDate bool
	// HasReference allows a reference to the corrected document.
	HasReference bool
	// Approvable enables the approve action on saved drafts.
	Approvable bool
}

var kindRules = map[Kind]KindRules{
	KindInvoice: {
		ActiveStatus: entity.StatusIssued,
		Prefix:       "INV",
		HasDueDate:   true,
		Approvable:   true,
	},
	KindReceipt: {
		ActiveStatus:     entity.StatusPaid,
		Prefix:           "RE",
		ProjectOnDraft:   true,
		RequiresPayments: true,
	},
	KindCreditNote: {
		ActiveStatus: entity.StatusIssued,
		Prefix:       "CN",
		HasReference: true,
	},
	KindDebitNote: {
		ActiveStatus: entity.StatusIssued,
		Prefix:       "DN",
		HasReference: true,
	},
}

// Kinds returns every supported kind.
func Kinds() []Kind {
	return []Kind{KindInvoice, KindReceipt, KindCreditNote, KindDebitNote}
}

// ParseKind converts a path segment or user input to a Kind.
// Both "credit_note" and "credit-note" are accepted.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !k.IsValid() {
		return "", fmt.Errorf("unknown document kind %q", s)
	}
	return k, nil
}

// IsValid reports whether k is a supported kind.
func (k Kind) IsValid() bool {
	_, ok := kindRules[k]
	return ok
}

// Rules returns the per-kind rules. Unknown kinds get the zero value.
func (k Kind) Rules() KindRules {
	return kindRules[k]
}

// ActiveStatus returns the issued-equivalent status of the kind.
func (k Kind) ActiveStatus() entity.Status {
	return kindRules[k].ActiveStatus
}

// NumberScope returns the numbering scope for a company.
func (k Kind) NumberScope(companyID id.ID) numerator.Scope {
	return numerator.NewScope(companyID, string(k), kindRules[k].Prefix)
}
