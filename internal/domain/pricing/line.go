package pricing

import (
	"charterbooks/internal/core/types"
)

// Line is the calculation input of a single line item.
type Line struct {
	Quantity        types.Money
	UnitPrice       types.Money
	TaxRate         types.Money // VAT percent, 0..100
	WhtRate         WhtRate
	CustomWhtAmount *types.Money // only meaningful when WhtRate is custom
}

// Breakdown is the rounded per-line split used for totals, postings and WHT records.
type Breakdown struct {
	Net   types.Money // pre-VAT base
	Tax   types.Money
	Gross types.Money // net + tax
	Wht   types.Money
}

// LineSubtotal is quantity * unitPrice, unrounded.
func LineSubtotal(quantity, unitPrice types.Money) types.Money {
	return quantity.Mul(unitPrice)
}

// LineAmount is the line's contribution to the document total.
//
//	no_vat:      quantity * unitPrice
//	exclude_vat: quantity * unitPrice * (1 + taxRate/100)
//	include_vat: quantity * unitPrice (VAT already inside)
func LineAmount(quantity, unitPrice, taxRate types.Money, pricingType PricingType) types.Money {
	subtotal := LineSubtotal(quantity, unitPrice)
	if pricingType == ExcludeVAT {
		return types.Round2(types.GrossUp(subtotal, taxRate))
	}
	return types.Round2(subtotal)
}

// PreVatAmount is the base WHT and subtotal are computed on, unrounded.
// For include_vat the VAT is stripped from the gross; otherwise the subtotal is the base.
func PreVatAmount(quantity, unitPrice, taxRate types.Money, pricingType PricingType) types.Money {
	subtotal := LineSubtotal(quantity, unitPrice)
	if pricingType == IncludeVAT {
		return types.NetOf(subtotal, taxRate)
	}
	return subtotal
}

// LineWht computes the withholding tax of one line.
// WHT always applies to the pre-VAT base, whatever the pricing type.
func LineWht(line Line, pricingType PricingType) types.Money {
	if line.WhtRate.IsCustom() {
		if line.CustomWhtAmount == nil {
			return types.Zero()
		}
		return types.Round2(*line.CustomWhtAmount)
	}
	rate := line.WhtRate.Percent()
	if rate.IsZero() {
		return types.Zero()
	}
	base := PreVatAmount(line.Quantity, line.UnitPrice, line.TaxRate, pricingType)
	return types.Round2(types.Percent(base, rate))
}

// LineTax is the VAT of one line, unrounded.
func LineTax(line Line, pricingType PricingType) types.Money {
	subtotal := LineSubtotal(line.Quantity, line.UnitPrice)
	switch pricingType {
	case ExcludeVAT:
		return types.Percent(subtotal, line.TaxRate)
	case IncludeVAT:
		return subtotal.Sub(types.NetOf(subtotal, line.TaxRate))
	default:
		return types.Zero()
	}
}

// LineBreakdown returns the rounded net/tax/gross/WHT split of one line.
// Gross is always Net + Tax so the parts reconcile to the cent.
func LineBreakdown(line Line, pricingType PricingType) Breakdown {
	var net, tax types.Money
	switch pricingType {
	case IncludeVAT:
		gross := types.Round2(LineSubtotal(line.Quantity, line.UnitPrice))
		net = types.Round2(PreVatAmount(line.Quantity, line.UnitPrice, line.TaxRate, pricingType))
		tax = gross.Sub(net)
	case ExcludeVAT:
		net = types.Round2(LineSubtotal(line.Quantity, line.UnitPrice))
		tax = types.Round2(LineTax(line, pricingType))
	default:
		net = types.Round2(LineSubtotal(line.Quantity, line.UnitPrice))
		tax = types.Zero()
	}
	return Breakdown{
		Net:   net,
		Tax:   tax,
		Gross: net.Add(tax),
		Wht:   LineWht(line, pricingType),
	}
}
