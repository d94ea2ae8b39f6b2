package documents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charterbooks/internal/core/id"
	"charterbooks/internal/domain/pricing"
)

var zeroTime time.Time

func TestRecalculate_NumbersLinesAndFillsDefaults(t *testing.T) {
	doc := newInvoice()
	doc.Lines = append(doc.Lines, LineItem{Description: "Skipper", Quantity: money("2"), UnitPrice: money("1500"), TaxRate: money("7")})

	doc.Recalculate()

	for i, l := range doc.Lines {
		assert.Equal(t, i+1, l.LineNo)
		assert.False(t, id.IsNil(l.ID))
	}
	assert.Equal(t, pricing.WhtNone, doc.Lines[1].WhtRate)
	assert.True(t, doc.Subtotal.Equal(money("4000")))
	assert.True(t, doc.TaxAmount.Equal(money("280")))
	assert.True(t, doc.TotalAmount.Equal(money("4280")))
	assert.True(t, doc.WhtAmount.Equal(money("30")))
	assert.True(t, doc.NetAmountToPay.Equal(money("4250")))
	assert.Nil(t, doc.BaseTotal)
}

func TestRecalculate_NoVAT(t *testing.T) {
	doc := newInvoice()
	doc.PricingType = pricing.NoVAT
	doc.Lines = []LineItem{{Description: "Dinghy", Quantity: money("2"), UnitPrice: money("500"), TaxRate: money("7"), WhtRate: "5"}}

	doc.Recalculate()

	assert.True(t, doc.Lines[0].Amount.Equal(money("1000")))
	assert.True(t, doc.TaxAmount.IsZero())
	assert.True(t, doc.TotalAmount.Equal(money("1000")))
	assert.True(t, doc.WhtAmount.Equal(money("50")))
}

func TestLineItem_IsEmpty(t *testing.T) {
	assert.True(t, LineItem{}.IsEmpty())
	assert.True(t, LineItem{Description: "  ", Quantity: money("3")}.IsEmpty())
	assert.False(t, LineItem{Description: "Fuel"}.IsEmpty())
	assert.False(t, LineItem{UnitPrice: money("0.01")}.IsEmpty())
}

func TestBuildWhtRecords_OnePerNonZeroLine(t *testing.T) {
	doc := newInvoice()
	doc.Number = "INV-2026-00010"
	doc.Lines = append(doc.Lines,
		LineItem{Description: "No WHT", Quantity: money("1"), UnitPrice: money("100")},
		LineItem{Description: "Custom", Quantity: money("1"), UnitPrice: money("100"), WhtRate: pricing.WhtCustom, CustomWhtAmount: ptr(money("12.5"))},
	)
	doc.Recalculate()

	records := BuildWhtRecords(doc)
	require.Len(t, records, 2)
	assert.Equal(t, "INV-2026-00010", records[0].DocumentNumber)
	assert.Equal(t, doc.Lines[2].ID, records[1].LineID)
	assert.True(t, records[1].Amount.Equal(money("12.5")))
}

func TestBuildPostingRequest_SkipsEmptyLines(t *testing.T) {
	doc := newInvoice()
	doc.Lines = append(doc.Lines, LineItem{})
	doc.Recalculate()

	req := BuildPostingRequest(doc)
	assert.Len(t, req.Lines, 1)
	assert.Nil(t, req.Payments)
	assert.Nil(t, req.Adjustment)
	assert.True(t, req.TotalAmount.Equal(money("1070")))
}

func ptr[T any](v T) *T { return &v }
