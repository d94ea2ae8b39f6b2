package fxrate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"charterbooks/internal/core/types"
	"charterbooks/internal/domain/fx"
)

// DefaultBOTURL is the Bank of Thailand daily average exchange rate endpoint.
const DefaultBOTURL = "https://apigw1.bot.or.th/bot/public/Stat-ExchangeRate/v2/DAILY_AVG_EXG_RATE/"

// botLookback is how many days before the requested date are searched, so a
// weekend or holiday resolves to the last published rate.
const botLookback = 5

// BOTClient reads daily average mid rates (THB per unit) from the Bank of Thailand.
type BOTClient struct {
	baseURL  string
	clientID string
	http     *http.Client
}

var _ fx.Provider = (*BOTClient)(nil)

// NewBOTClient creates a Bank of Thailand provider. An empty baseURL uses DefaultBOTURL.
func NewBOTClient(baseURL, clientID string, client *http.Client) *BOTClient {
	if baseURL == "" {
		baseURL = DefaultBOTURL
	}
	return &BOTClient{baseURL: baseURL, clientID: clientID, http: newHTTPClient(client)}
}

// Source implements fx.Provider.
func (c *BOTClient) Source() fx.Source { return fx.SourceBOT }

type botResponse struct {
	Result struct {
		Data struct {
			DataDetail []botRate `json:"data_detail"`
		} `json:"data"`
	} `json:"result"`
}

type botRate struct {
	Period     string `json:"period"`
	CurrencyID string `json:"currency_id"`
	MidRate    string `json:"mid_rate"`
}

// GetRate returns the most recent published mid rate on or before asOf,
// looking back up to five days. BOT only quotes against THB.
func (c *BOTClient) GetRate(ctx context.Context, currency, base string, asOf time.Time) (fx.Rate, error) {
	if !strings.EqualFold(base, "THB") {
		return fx.Rate{}, fmt.Errorf("bot quotes THB only, base is %s", base)
	}

	end := asOf.UTC()
	start := end.AddDate(0, 0, -botLookback)

	query := url.Values{}
	query.Set("start_period", start.Format(time.DateOnly))
	query.Set("end_period", end.Format(time.DateOnly))
	query.Set("currency", strings.ToUpper(currency))

	header := http.Header{}
	if c.clientID != "" {
		header.Set("X-IBM-Client-Id", c.clientID)
	}

	var resp botResponse
	if err := getJSON(ctx, c.http, c.baseURL+"?"+query.Encode(), header, &resp); err != nil {
		return fx.Rate{}, err
	}

	return latestBOTRate(resp.Result.Data.DataDetail, currency, end)
}

func latestBOTRate(details []botRate, currency string, notAfter time.Time) (fx.Rate, error) {
	var (
		best     fx.Rate
		found    bool
		limitDay = notAfter.Format(time.DateOnly)
	)
	for _, d := range details {
		if d.CurrencyID != "" && !strings.EqualFold(d.CurrencyID, currency) {
			continue
		}
		if strings.TrimSpace(d.MidRate) == "" || d.Period > limitDay {
			continue
		}
		day, err := time.Parse(time.DateOnly, d.Period)
		if err != nil {
			continue
		}
		if found && !day.After(best.Date) {
			continue
		}
		value, err := types.NewMoneyFromString(strings.TrimSpace(d.MidRate))
		if err != nil {
			continue
		}
		best = fx.Rate{Value: value.Round(rateScale), Source: fx.SourceBOT, Date: day}
		found = true
	}
	if !found {
		return fx.Rate{}, fmt.Errorf("no bot rate for %s in the %d days up to %s", currency, botLookback, limitDay)
	}
	return best, nil
}
