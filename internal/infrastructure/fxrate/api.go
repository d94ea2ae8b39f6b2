package fxrate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"charterbooks/internal/core/types"
	"charterbooks/internal/domain/fx"
)

// DefaultAPIURL is the public open exchange-rate API.
const DefaultAPIURL = "https://open.er-api.com/v6/latest"

// APIClient reads latest rates from an open exchange-rate API. The API quotes
// foreign units per one base unit, so rates are inverted.
type APIClient struct {
	baseURL string
	http    *http.Client
}

var _ fx.Provider = (*APIClient)(nil)

// NewAPIClient creates an open API provider. An empty baseURL uses DefaultAPIURL.
func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), http: newHTTPClient(client)}
}

// Source implements fx.Provider.
func (c *APIClient) Source() fx.Source { return fx.SourceAPI }

type apiResponse struct {
	Result             string                 `json:"result"`
	BaseCode           string                 `json:"base_code"`
	TimeLastUpdateUnix int64                  `json:"time_last_update_unix"`
	Rates              map[string]types.Money `json:"rates"`
}

// GetRate implements fx.Provider. The API has no history: the rate is the
// latest one and carries the API's update date, not asOf.
func (c *APIClient) GetRate(ctx context.Context, currency, base string, asOf time.Time) (fx.Rate, error) {
	base = strings.ToUpper(base)
	currency = strings.ToUpper(currency)

	var resp apiResponse
	if err := getJSON(ctx, c.http, c.baseURL+"/"+base, nil, &resp); err != nil {
		return fx.Rate{}, err
	}
	if resp.Result != "" && resp.Result != "success" {
		return fx.Rate{}, fmt.Errorf("api result %q", resp.Result)
	}

	perBase, ok := resp.Rates[currency]
	if !ok || !perBase.IsPositive() {
		return fx.Rate{}, fmt.Errorf("api has no %s rate against %s", currency, base)
	}

	date := asOf.UTC()
	if resp.TimeLastUpdateUnix > 0 {
		date = time.Unix(resp.TimeLastUpdateUnix, 0).UTC()
	}
	y, m, d := date.Date()

	return fx.Rate{
		Value:  types.MustMoney("1").DivRound(perBase, rateScale),
		Source: fx.SourceAPI,
		Date:   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}, nil
}
