// Package pricing computes line amounts, VAT, withholding tax and document totals.
// Every function here is pure: same input, same output, no I/O.
package pricing

import (
	"fmt"
	"strings"

	"charterbooks/internal/core/types"
)

// PricingType tells how unit prices relate to VAT.
type PricingType string

const (
	// ExcludeVAT: prices are net, VAT is added on top.
	ExcludeVAT PricingType = "exclude_vat"
	// IncludeVAT: prices already contain VAT, which is extracted from the gross.
	IncludeVAT PricingType = "include_vat"
	// NoVAT: no VAT is charged at all.
	NoVAT PricingType = "no_vat"
)

// IsValid reports whether p is a known pricing type.
func (p PricingType) IsValid() bool {
	switch p {
	case ExcludeVAT, IncludeVAT, NoVAT:
		return true
	}
	return false
}

// ParsePricingType converts user input to a PricingType.
func ParsePricingType(s string) (PricingType, error) {
	p := PricingType(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("unknown pricing type %q", s)
	}
	return p, nil
}

// WhtRate is a withholding-tax rate: one of the allowed percentages or Custom.
type WhtRate string

// WhtCustom marks a line whose WHT is an absolute amount instead of a rate.
const WhtCustom WhtRate = "custom"

// WhtNone is the zero rate.
const WhtNone WhtRate = "0"

// allowedWhtRates are the withholding percentages accepted by the revenue department.
var allowedWhtRates = []string{"0", "0.75", "1", "1.5", "2", "3", "5", "10", "15"}

// AllowedWhtRates returns the enumerated WHT percentages in ascending order.
func AllowedWhtRates() []WhtRate {
	out := make([]WhtRate, len(allowedWhtRates))
	for i, r := range allowedWhtRates {
		out[i] = WhtRate(r)
	}
	return out
}

// ParseWhtRate normalises input ("3", "3.0", "custom", "") to a WhtRate.
// An empty string means no withholding.
func ParseWhtRate(s string) (WhtRate, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return WhtNone, nil
	}
	if s == string(WhtCustom) {
		return WhtCustom, nil
	}
	d, err := types.NewMoneyFromString(s)
	if err != nil {
		return "", fmt.Errorf("invalid WHT rate %q", s)
	}
	for _, allowed := range allowedWhtRates {
		if d.Equal(types.MustMoney(allowed)) {
			return WhtRate(allowed), nil
		}
	}
	return "", fmt.Errorf("WHT rate %q is not an allowed rate", s)
}

// IsCustom reports whether the line carries an absolute WHT amount.
func (w WhtRate) IsCustom() bool {
	return w == WhtCustom
}

// IsValid reports whether w is Custom or one of the allowed percentages.
func (w WhtRate) IsValid() bool {
	if w == "" || w.IsCustom() {
		return true
	}
	_, err := ParseWhtRate(string(w))
	return err == nil
}

// Percent returns the numeric rate. Custom, empty and malformed rates yield zero.
func (w WhtRate) Percent() types.Money {
	if w == "" || w.IsCustom() {
		return types.Zero()
	}
	d, err := types.NewMoneyFromString(string(w))
	if err != nil {
		return types.Zero()
	}
	return d
}

// IsZero reports whether no withholding applies.
func (w WhtRate) IsZero() bool {
	return !w.IsCustom() && w.Percent().IsZero()
}
