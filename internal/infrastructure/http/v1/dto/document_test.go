package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charterbooks/internal/core/apperror"
	"charterbooks/internal/core/entity"
	"charterbooks/internal/core/id"
	"charterbooks/internal/core/types"
	"charterbooks/internal/domain/documents"
	"charterbooks/internal/domain/fx"
)

const companyID = "0190a000-0000-7000-8000-00000000000a"

func TestTargetStatus(t *testing.T) {
	tests := []struct {
		name    string
		req     SaveDocumentRequest
		kind    documents.Kind
		want    entity.Status
		wantErr bool
	}{
		{"empty is draft", SaveDocumentRequest{}, documents.KindInvoice, entity.StatusDraft, false},
		{"issue shortcut on receipt", SaveDocumentRequest{Issue: true}, documents.KindReceipt, entity.StatusPaid, false},
		{"explicit issued", SaveDocumentRequest{Status: "Issued"}, documents.KindInvoice, entity.StatusIssued, false},
		{"unknown", SaveDocumentRequest{Status: "posted"}, documents.KindInvoice, "", true},
		{"void goes through the void action", SaveDocumentRequest{Status: "void"}, documents.KindInvoice, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.TargetStatus(tt.kind)
			if tt.wantErr {
				assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToDocument_EmptyIDsAreNil(t *testing.T) {
	req := SaveDocumentRequest{CompanyID: companyID}

	doc, err := req.ToDocument(documents.KindInvoice)
	require.NoError(t, err)
	assert.Equal(t, id.MustParse(companyID), doc.CompanyID)
	assert.True(t, id.IsNil(doc.ClientID))
}

func TestToDocument_MalformedIDIsAFieldError(t *testing.T) {
	req := SaveDocumentRequest{CompanyID: companyID, ClientID: "yacht-42"}

	_, err := req.ToDocument(documents.KindInvoice)
	assert.Contains(t, apperror.FieldErrorsOf(err), "clientId")
}

func TestToDocument_FxRateSource(t *testing.T) {
	rate := types.MustMoney("36.25")

	manual := SaveDocumentRequest{CompanyID: companyID, Currency: "usd", FxRate: &rate}
	doc, err := manual.ToDocument(documents.KindInvoice)
	require.NoError(t, err)
	assert.Equal(t, fx.SourceManual, doc.FxRateSource)
	assert.Equal(t, "USD", doc.Currency)

	echoed := SaveDocumentRequest{CompanyID: companyID, Currency: "USD", FxRate: &rate, FxRateSource: "BOT"}
	doc, err = echoed.ToDocument(documents.KindInvoice)
	require.NoError(t, err)
	assert.Equal(t, fx.SourceBOT, doc.FxRateSource)

	bogus := SaveDocumentRequest{CompanyID: companyID, Currency: "USD", FxRate: &rate, FxRateSource: "guess"}
	_, err = bogus.ToDocument(documents.KindInvoice)
	assert.Contains(t, apperror.FieldErrorsOf(err), "fxRateSource")
}
