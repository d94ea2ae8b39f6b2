// Package fx resolves foreign-exchange rates to the base currency.
package fx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"charterbooks/internal/core/types"
	"charterbooks/pkg/logger"
)

// Source tells where a rate came from.
type Source string

const (
	SourceBOT      Source = "bot"
	SourceAPI      Source = "api"
	SourceFallback Source = "fallback"
	SourceManual   Source = "manual"
)

// IsValid reports whether s is a known source.
func (s Source) IsValid() bool {
	switch s {
	case SourceBOT, SourceAPI, SourceFallback, SourceManual:
		return true
	}
	return false
}

// ErrRateUnavailable is returned when no provider could supply a rate.
// Callers save the document without a rate and ask the user for a manual one.
var ErrRateUnavailable = errors.New("fx rate unavailable")

// Rate is the number of base-currency units for one unit of the foreign currency.
type Rate struct {
	Value  types.Money `json:"rate"`
	Source Source      `json:"source"`
	Date   time.Time   `json:"date"`
}

// Provider supplies rates from one source.
type Provider interface {
	// Source identifies the provider in resolved rates.
	Source() Source
	// GetRate returns the rate of currency against the base currency as of date.
	GetRate(ctx context.Context, currency, base string, asOf time.Time) (Rate, error)
}

type cacheEntry struct {
	rate    Rate
	expires time.Time
}

// Resolver walks providers in precedence order and caches hits.
type Resolver struct {
	base      string
	providers []Provider
	ttl       time.Duration
	now       func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewResolver creates a resolver for base currency. Providers are tried in the given
// order, typically BOT, then the public API, then the static fallback table.
func NewResolver(base string, ttl time.Duration, providers ...Provider) *Resolver {
	return &Resolver{
		base:      strings.ToUpper(base),
		providers: providers,
		ttl:       ttl,
		now:       time.Now,
		cache:     make(map[string]cacheEntry),
	}
}

// BaseCurrency returns the accounting currency.
func (r *Resolver) BaseCurrency() string {
	return r.base
}

// NeedsRate reports whether documents in currency must carry an FX rate.
func (r *Resolver) NeedsRate(currency string) bool {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	return currency != "" && currency != r.base
}

// Resolve returns the rate for currency on asOf.
//
// Base currency yields (nil, nil). A positive manual rate wins over every provider.
// When all providers fail the error wraps ErrRateUnavailable.
func (r *Resolver) Resolve(ctx context.Context, currency string, asOf time.Time, manual *types.Money) (*Rate, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !r.NeedsRate(currency) {
		return nil, nil
	}

	if manual != nil && manual.IsPositive() {
		return &Rate{Value: *manual, Source: SourceManual, Date: dayOf(asOf)}, nil
	}

	key := currency + "@" + dayOf(asOf).Format("2006-01-02")
	if rate, ok := r.cached(key); ok {
		return &rate, nil
	}

	var errs []error
	for _, p := range r.providers {
		rate, err := p.GetRate(ctx, currency, r.base, asOf)
		if err == nil && !rate.Value.IsPositive() {
			err = fmt.Errorf("non-positive rate %s", rate.Value)
		}
		if err != nil {
			logger.Warn(ctx, "fx provider failed",
				"source", p.Source(),
				"currency", currency,
				"date", asOf.Format("2006-01-02"),
				"error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Source(), err))
			continue
		}
		if rate.Source == "" {
			rate.Source = p.Source()
		}
		if rate.Date.IsZero() {
			rate.Date = dayOf(asOf)
		}
		r.store(key, rate)
		return &rate, nil
	}

	return nil, fmt.Errorf("%w for %s on %s: %w", ErrRateUnavailable, currency, asOf.Format("2006-01-02"), errors.Join(errs...))
}

func (r *Resolver) cached(key string) (Rate, bool) {
	if r.ttl <= 0 {
		return Rate{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[key]
	if !ok || r.now().After(entry.expires) {
		return Rate{}, false
	}
	return entry.rate, true
}

func (r *Resolver) store(key string, rate Rate) {
	if r.ttl <= 0 {
		return
	}
	r.mu.Lock()
	r.cache[key] = cacheEntry{rate: rate, expires: r.now().Add(r.ttl)}
	r.mu.Unlock()
}

func dayOf(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
