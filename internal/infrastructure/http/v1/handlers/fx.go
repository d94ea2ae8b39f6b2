package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"charterbooks/internal/core/apperror"
	"charterbooks/internal/core/types"
	"charterbooks/internal/domain/fx"
	"charterbooks/internal/infrastructure/http/v1/dto"
)

// RateService resolves exchange rates.
type RateService interface {
	BaseCurrency() string
	Resolve(ctx context.Context, currency string, asOf time.Time, manual *types.Money) (*fx.Rate, error)
}

var _ RateService = (*fx.Resolver)(nil)

// FxHandler exposes the rate lookup used by document forms.
type FxHandler struct {
	BaseHandler
	rates RateService
	now   func() time.Time
}

// NewFxHandler creates a new rate handler.
func NewFxHandler(rates RateService) *FxHandler {
	return &FxHandler{rates: rates, now: time.Now}
}

type fxRateQuery struct {
	Currency string `form:"currency" binding:"required,len=3"`
	Date     string `form:"date"`
}

// Get returns the rate of currency against the base currency on date
// (default today). Base currency answers with rate 1.
// GET /api/v1/fx-rates?currency=USD&date=2026-04-01
func (h *FxHandler) Get(c *gin.Context) {
	var query fxRateQuery
	if !h.BindQuery(c, &query) {
		return
	}

	asOf := h.now().UTC()
	if query.Date != "" {
		d, err := time.Parse(time.DateOnly, query.Date)
		if err != nil {
			h.Error(c, apperror.NewValidation("date must be YYYY-MM-DD").WithDetail("date", query.Date))
			return
		}
		asOf = d
	}

	currency := strings.ToUpper(query.Currency)
	base := h.rates.BaseCurrency()

	rate, err := h.rates.Resolve(c.Request.Context(), currency, asOf, nil)
	switch {
	case errors.Is(err, fx.ErrRateUnavailable):
		h.Error(c, apperror.NewBusinessRule(apperror.CodeFxRateUnavailable, "No exchange rate available; enter it manually").
			WithDetail("currency", currency).
			WithCause(err))
		return
	case err != nil:
		h.Error(c, err)
		return
	}
	if rate == nil {
		h.OK(c, dto.FxRateResponse{
			Currency: currency,
			Base:     base,
			Rate:     types.MustMoney("1"),
			Source:   "base",
			Date:     asOf.Format(time.DateOnly),
		})
		return
	}

	h.OK(c, dto.FromRate(currency, base, rate))
}
