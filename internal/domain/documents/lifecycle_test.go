package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"charterbooks/internal/core/apperror"
	"charterbooks/internal/core/entity"
)

func TestTransition(t *testing.T) {
	const (
		draft  = entity.StatusDraft
		issued = entity.StatusIssued
		paid   = entity.StatusPaid
		void   = entity.StatusVoid
	)

	tests := []struct {
		kind     Kind
		from, to entity.Status
		wantCode string
	}{
		{KindInvoice, "", draft, ""},
		{KindInvoice, "", issued, ""},
		{KindInvoice, draft, draft, ""},
		{KindInvoice, draft, issued, ""},
		{KindInvoice, issued, issued, ""},
		{KindInvoice, issued, void, ""},
		{KindInvoice, issued, draft, apperror.CodeInvalidTransition},
		{KindInvoice, draft, void, apperror.CodeInvalidTransition},
		{KindInvoice, draft, paid, apperror.CodeInvalidTransition},
		{KindInvoice, paid, void, apperror.CodeInvalidTransition},
		{KindReceipt, draft, paid, ""},
		{KindReceipt, paid, paid, ""},
		{KindReceipt, paid, void, ""},
		{KindReceipt, draft, issued, apperror.CodeInvalidTransition},
		{KindCreditNote, draft, issued, ""},
		{KindDebitNote, issued, void, ""},
		{Kind("quote"), draft, draft, apperror.CodeInvalidTransition},
		{KindInvoice, void, draft, apperror.CodeDocumentVoid},
		{KindInvoice, void, issued, apperror.CodeDocumentVoid},
		{KindReceipt, void, paid, apperror.CodeDocumentVoid},
		{KindReceipt, void, void, apperror.CodeDocumentVoid},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := Transition(tt.kind, tt.from, tt.to)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				assert.True(t, CanTransition(tt.kind, tt.from, tt.to))
				return
			}
			assert.True(t, apperror.HasCode(err, tt.wantCode), "got %v", err)
			assert.False(t, CanTransition(tt.kind, tt.from, tt.to))
		})
	}
}

func TestKind_ParseAndRules(t *testing.T) {
	k, err := ParseKind("Credit-Note")
	assert.NoError(t, err)
	assert.Equal(t, KindCreditNote, k)

	_, err = ParseKind("quote")
	assert.Error(t, err)

	assert.Equal(t, entity.StatusPaid, KindReceipt.ActiveStatus())
	assert.Equal(t, entity.StatusIssued, KindDebitNote.ActiveStatus())
	assert.True(t, KindReceipt.Rules().RequiresPayments)
	assert.True(t, KindInvoice.Rules().Approvable)
	assert.Len(t, Kinds(), 4)

	scope := KindCreditNote.NumberScope(company)
	assert.Equal(t, "CN", scope.Config.Prefix)
	assert.Equal(t, "credit_note", scope.DocType)
}
