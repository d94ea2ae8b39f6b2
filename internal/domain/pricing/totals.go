package pricing

import (
	"fmt"

	"charterbooks/internal/core/types"
)

// Totals are the document level aggregates.
type Totals struct {
	Subtotal    types.Money `json:"subtotal"`
	TaxAmount   types.Money `json:"taxAmount"`
	TotalAmount types.Money `json:"totalAmount"`
}

// DocumentTotals rolls lines up into subtotal, tax and total.
// Sums are kept at full precision and rounded once at the end.
func DocumentTotals(lines []Line, pricingType PricingType) Totals {
	subtotal := types.Zero()
	tax := types.Zero()

	for _, line := range lines {
		subtotal = subtotal.Add(PreVatAmount(line.Quantity, line.UnitPrice, line.TaxRate, pricingType))
		tax = tax.Add(LineTax(line, pricingType))
	}

	subtotal = types.Round2(subtotal)
	if pricingType == NoVAT {
		return Totals{Subtotal: subtotal, TaxAmount: types.Zero(), TotalAmount: subtotal}
	}

	tax = types.Round2(tax)
	return Totals{
		Subtotal:    subtotal,
		TaxAmount:   tax,
		TotalAmount: subtotal.Add(tax),
	}
}

// DocumentWht sums LineWht over all lines.
func DocumentWht(lines []Line, pricingType PricingType) types.Money {
	total := types.Zero()
	for _, line := range lines {
		total = total.Add(LineWht(line, pricingType))
	}
	return total
}

// NetAmountToPay is what the customer actually transfers on a receipt.
func NetAmountToPay(totals Totals, wht types.Money) types.Money {
	return totals.TotalAmount.Sub(wht)
}

// AdjustmentType describes a receipt-level correction (bank fees, rounding, discounts).
type AdjustmentType string

const (
	AdjustmentNone   AdjustmentType = "none"
	AdjustmentAdd    AdjustmentType = "add"
	AdjustmentDeduct AdjustmentType = "deduct"
)

// IsValid reports whether a is a known adjustment type. Empty counts as none.
func (a AdjustmentType) IsValid() bool {
	switch a {
	case "", AdjustmentNone, AdjustmentAdd, AdjustmentDeduct:
		return true
	}
	return false
}

// ParseAdjustmentType converts user input to an AdjustmentType; empty means none.
func ParseAdjustmentType(s string) (AdjustmentType, error) {
	switch AdjustmentType(s) {
	case "", AdjustmentNone:
		return AdjustmentNone, nil
	case AdjustmentAdd:
		return AdjustmentAdd, nil
	case AdjustmentDeduct:
		return AdjustmentDeduct, nil
	}
	return "", fmt.Errorf("unknown adjustment type %q", s)
}

// AdjustedNet applies a receipt adjustment to the net amount to pay.
func AdjustedNet(net types.Money, adjustment AdjustmentType, amount types.Money) types.Money {
	switch adjustment {
	case AdjustmentAdd:
		return net.Add(amount)
	case AdjustmentDeduct:
		return net.Sub(amount)
	default:
		return net
	}
}

// ToBase converts a document-currency amount to the base currency.
func ToBase(amount, fxRate types.Money) types.Money {
	return types.Round2(amount.Mul(fxRate))
}
