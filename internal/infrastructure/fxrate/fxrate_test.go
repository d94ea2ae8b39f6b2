package fxrate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charterbooks/internal/core/types"
	"charterbooks/internal/domain/fx"
)

var saturday = time.Date(2026, 4, 11, 0, 0, 0, 0, time.UTC)

func TestBOTClient_WalksBackToLastPublishedDay(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `{"result":{"data":{"data_detail":[
			{"period":"2026-04-11","currency_id":"USD","mid_rate":""},
			{"period":"2026-04-10","currency_id":"USD","mid_rate":"36.5125"},
			{"period":"2026-04-09","currency_id":"USD","mid_rate":"36.4000"}
		]}}}`)
	}))
	defer srv.Close()

	client := NewBOTClient(srv.URL, "client-123", srv.Client())
	rate, err := client.GetRate(context.Background(), "usd", "THB", saturday)
	require.NoError(t, err)

	assert.True(t, rate.Value.Equal(types.MustMoney("36.5125")), rate.Value.String())
	assert.Equal(t, fx.SourceBOT, rate.Source)
	assert.Equal(t, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), rate.Date)

	require.NotNil(t, got)
	assert.Equal(t, "client-123", got.Header.Get("X-IBM-Client-Id"))
	assert.Equal(t, "2026-04-06", got.URL.Query().Get("start_period"))
	assert.Equal(t, "2026-04-11", got.URL.Query().Get("end_period"))
	assert.Equal(t, "USD", got.URL.Query().Get("currency"))
}

func TestBOTClient_NoRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"data":{"data_detail":[]}}}`)
	}))
	defer srv.Close()

	_, err := NewBOTClient(srv.URL, "", srv.Client()).GetRate(context.Background(), "EUR", "THB", saturday)
	assert.ErrorContains(t, err, "no bot rate for EUR")
}

func TestBOTClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewBOTClient(srv.URL, "", srv.Client()).GetRate(context.Background(), "USD", "THB", saturday)
	assert.ErrorContains(t, err, "unexpected status 401")
}

func TestBOTClient_OnlyTHB(t *testing.T) {
	_, err := NewBOTClient("http://unused", "", nil).GetRate(context.Background(), "USD", "EUR", saturday)
	assert.Error(t, err)
}

func TestLatestBOTRate_IgnoresFutureAndOtherCurrencies(t *testing.T) {
	details := []botRate{
		{Period: "2026-04-12", CurrencyID: "USD", MidRate: "40"},
		{Period: "2026-04-10", CurrencyID: "EUR", MidRate: "39.2"},
		{Period: "2026-04-08", CurrencyID: "USD", MidRate: "36.1"},
	}

	rate, err := latestBOTRate(details, "USD", saturday)
	require.NoError(t, err)
	assert.True(t, rate.Value.Equal(types.MustMoney("36.1")))
}

func TestAPIClient_InvertsRate(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		fmt.Fprint(w, `{"result":"success","base_code":"THB","time_last_update_unix":1775779200,"rates":{"THB":1,"USD":0.025,"EUR":0.0255}}`)
	}))
	defer srv.Close()

	rate, err := NewAPIClient(srv.URL+"/", srv.Client()).GetRate(context.Background(), "USD", "thb", saturday)
	require.NoError(t, err)

	assert.Equal(t, "/THB", path)
	assert.True(t, rate.Value.Equal(types.MustMoney("40")), rate.Value.String())
	assert.Equal(t, fx.SourceAPI, rate.Source)
	assert.Equal(t, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), rate.Date)
}

func TestAPIClient_MissingCurrency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":"success","rates":{"THB":1}}`)
	}))
	defer srv.Close()

	_, err := NewAPIClient(srv.URL, srv.Client()).GetRate(context.Background(), "XAU", "THB", saturday)
	assert.ErrorContains(t, err, "no XAU rate")
}

func TestAPIClient_ErrorResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":"error","error-type":"unsupported-code"}`)
	}))
	defer srv.Close()

	_, err := NewAPIClient(srv.URL, srv.Client()).GetRate(context.Background(), "USD", "ZZZ", saturday)
	assert.ErrorContains(t, err, "error")
}

func TestStaticTable(t *testing.T) {
	table, err := ParseStaticTable(" usd:36.5, EUR:39.2 ,")
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	rate, err := table.GetRate(context.Background(), "Usd", "THB", time.Date(2026, 4, 10, 13, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, rate.Value.Equal(types.MustMoney("36.5")))
	assert.Equal(t, fx.SourceFallback, rate.Source)
	assert.Equal(t, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), rate.Date)

	_, err = table.GetRate(context.Background(), "GBP", "THB", saturday)
	assert.Error(t, err)
}

func TestParseStaticTable_Invalid(t *testing.T) {
	for _, table := range []string{"USD", "USD:abc", "USD:-1", ":36"} {
		_, err := ParseStaticTable(table)
		assert.Error(t, err, table)
	}

	empty, err := ParseStaticTable("")
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
}

func TestProviders_ChainInResolver(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	table, err := ParseStaticTable("USD:36.5")
	require.NoError(t, err)

	resolver := fx.NewResolver("THB", time.Hour,
		NewBOTClient(failing.URL, "", failing.Client()),
		NewAPIClient(failing.URL, failing.Client()),
		table,
	)

	rate, err := resolver.Resolve(context.Background(), "USD", saturday, nil)
	require.NoError(t, err)
	assert.Equal(t, fx.SourceFallback, rate.Source)
}
