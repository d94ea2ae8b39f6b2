package fxrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charterbooks/internal/core/types"
	"charterbooks/internal/domain/fx"
)

// StaticTable serves fixed fallback rates from configuration.
type StaticTable struct {
	rates map[string]types.Money
}

var _ fx.Provider = (*StaticTable)(nil)

// ParseStaticTable parses "USD:36.5,EUR:39.2". Empty input yields an empty table.
func ParseStaticTable(raw string) (*StaticTable, error) {
	table := &StaticTable{rates: make(map[string]types.Money)}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, value, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("fallback rate %q: want CODE:RATE", pair)
		}
		code = strings.ToUpper(strings.TrimSpace(code))
		rate, err := types.NewMoneyFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("fallback rate %q: %w", pair, err)
		}
		if code == "" || !rate.IsPositive() {
			return nil, fmt.Errorf("fallback rate %q: want a currency code and a positive rate", pair)
		}
		table.rates[code] = rate
	}
	return table, nil
}

// Len returns the number of configured currencies.
func (t *StaticTable) Len() int { return len(t.rates) }

// Source implements fx.Provider.
func (t *StaticTable) Source() fx.Source { return fx.SourceFallback }

// GetRate implements fx.Provider. Fallback rates are dated asOf.
func (t *StaticTable) GetRate(_ context.Context, currency, _ string, asOf time.Time) (fx.Rate, error) {
	rate, ok := t.rates[strings.ToUpper(currency)]
	if !ok {
		return fx.Rate{}, fmt.Errorf("no fallback rate for %s", currency)
	}
	y, m, d := asOf.Date()
	return fx.Rate{Value: rate, Source: fx.SourceFallback, Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}, nil
}
