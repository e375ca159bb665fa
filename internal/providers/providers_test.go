package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type retryCounter struct {
	n    atomic.Int64
	errs atomic.Int64
}

func (r *retryCounter) RecordRetry(provider string) { r.n.Add(1) }

func (r *retryCounter) RecordProviderError(provider string) { r.errs.Add(1) }

func avStatementsHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var report map[string]string
		switch r.URL.Query().Get("function") {
		case "BALANCE_SHEET":
			report = map[string]string{
				"totalAssets":                  "1000",
				"totalLiabilities":             "600",
				"totalShareholderEquity":       "400",
				"totalCurrentAssets":           "300",
				"totalCurrentLiabilities":      "150",
				"longTermDebtNoncurrent":       "200",
				"commonStockSharesOutstanding": "50",
			}
		case "INCOME_STATEMENT":
			report = map[string]string{
				"totalRevenue":    "800",
				"grossProfit":     "320",
				"ebit":            "180",
				"operatingIncome": "170",
				"incomeBeforeTax": "160",
				"netIncome":       "120",
			}
		case "CASH_FLOW":
			report = map[string]string{
				"operatingCashflow":   "140",
				"capitalExpenditures": "-60",
			}
		default:
			t.Errorf("unexpected function %q", r.URL.Query().Get("function"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"annualReports": []map[string]string{report},
		})
	}
}

func TestAlphaVantage_FetchFinancials(t *testing.T) {
	srv := httptest.NewServer(avStatementsHandler(t))
	defer srv.Close()

	av := NewAlphaVantage(srv.URL, "key", time.Second, nil, zerolog.Nop())
	stmts, err := av.FetchFinancials(context.Background(), "ACME")
	require.NoError(t, err)

	assert.Equal(t, "ACME", stmts.Ticker)
	assert.Equal(t, 1000.0, stmts.BalanceSheet.TotalAssets)
	assert.Equal(t, 400.0, stmts.BalanceSheet.TotalEquity)
	assert.Equal(t, 200.0, stmts.BalanceSheet.LongTermDebt)
	assert.Equal(t, 50.0, stmts.BalanceSheet.SharesOutstanding)
	assert.Equal(t, 800.0, stmts.IncomeStatement.Revenue)
	assert.Equal(t, 160.0, stmts.IncomeStatement.PretaxIncome)
	assert.Equal(t, 140.0, stmts.CashFlow.OperatingCashFlow)
	assert.Equal(t, -60.0, stmts.CashFlow.CapitalExpenditures)
}

func TestAlphaVantage_MissingFieldsDecodeToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"annualReports": []map[string]string{{
				"totalAssets":            "None",
				"totalShareholderEquity": "",
			}},
		})
	}))
	defer srv.Close()

	av := NewAlphaVantage(srv.URL, "key", time.Second, nil, zerolog.Nop())
	stmts, err := av.FetchFinancials(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 0.0, stmts.BalanceSheet.TotalAssets)
	assert.Equal(t, 0.0, stmts.BalanceSheet.TotalEquity)
}

func TestAlphaVantage_NoReportsIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"annualReports": []map[string]string{}})
	}))
	defer srv.Close()

	av := NewAlphaVantage(srv.URL, "key", time.Second, nil, zerolog.Nop())
	_, err := av.FetchFinancials(context.Background(), "GHOST")
	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "alphavantage", provErr.Provider)
}

func TestAlphaVantage_FetchPriceHistory(t *testing.T) {
	now := time.Now()
	day := func(offset int) string { return now.AddDate(0, 0, offset).Format("2006-01-02") }

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"Time Series (Daily)": map[string]map[string]string{
				day(-1):  {"4. close": "102"},
				day(-2):  {"4. close": "105"},
				day(-3):  {"4. close": "100"},
				day(-90): {"4. close": "80"}, // outside the window
			},
		})
	}))
	defer srv.Close()

	av := NewAlphaVantage(srv.URL, "key", time.Second, nil, zerolog.Nop())
	points, err := av.FetchPriceHistory(context.Background(), "ACME", 30)
	require.NoError(t, err)
	require.Len(t, points, 3)

	// Oldest first.
	assert.Equal(t, 100.0, points[0].Close)
	assert.Equal(t, 105.0, points[1].Close)
	assert.Equal(t, 102.0, points[2].Close)
}

func TestAlphaVantage_FetchNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ACME", r.URL.Query().Get("tickers"))
		json.NewEncoder(w).Encode(map[string]any{
			"feed": []map[string]any{
				{
					"title":                   "Credit downgrade",
					"summary":                 "Rising debt",
					"time_published":          "20260815T120000",
					"overall_sentiment_score": -0.4,
				},
			},
		})
	}))
	defer srv.Close()

	av := NewAlphaVantage(srv.URL, "key", time.Second, nil, zerolog.Nop())
	articles, err := av.FetchNews(context.Background(), "ACME", 10)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Credit downgrade", articles[0].Title)
	assert.Equal(t, -0.4, articles[0].SentimentScore)
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"annualReports": []map[string]string{{"totalAssets": "1"}},
		})
	}))
	defer srv.Close()

	retries := &retryCounter{}
	av := NewAlphaVantage(srv.URL, "key", time.Second, retries, zerolog.Nop())
	_, err := av.latestReport(context.Background(), "BALANCE_SHEET", "ACME")
	require.NoError(t, err)
	assert.Equal(t, int64(3), hits.Load())
	assert.Equal(t, int64(2), retries.n.Load())
	assert.Equal(t, int64(0), retries.errs.Load())
}

func TestClient_RecordsExhaustedFailure(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	retries := &retryCounter{}
	av := NewAlphaVantage(srv.URL, "key", time.Second, retries, zerolog.Nop())
	_, err := av.latestReport(context.Background(), "BALANCE_SHEET", "ACME")
	require.Error(t, err)
	assert.Equal(t, int64(3), hits.Load())
	assert.Equal(t, int64(2), retries.n.Load())
	assert.Equal(t, int64(1), retries.errs.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	av := NewAlphaVantage(srv.URL, "key", time.Second, nil, zerolog.Nop())
	_, err := av.latestReport(context.Background(), "BALANCE_SHEET", "GHOST")
	require.Error(t, err)
	assert.Equal(t, int64(1), hits.Load())
}

func fredBody(values ...string) map[string]any {
	obs := make([]map[string]string, len(values))
	for i, v := range values {
		obs[i] = map[string]string{
			"date":  fmt.Sprintf("2026-08-%02d", 20-i),
			"value": v,
		}
	}
	return map[string]any{"observations": obs}
}

func TestFred_FetchMacroRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "FEDFUNDS", r.URL.Query().Get("series_id"))
		json.NewEncoder(w).Encode(fredBody("5.33", "5.25"))
	}))
	defer srv.Close()

	fred := NewFred(srv.URL, "key", time.Second, nil, zerolog.Nop())
	rate, err := fred.FetchMacroRate(context.Background(), "FEDFUNDS")
	require.NoError(t, err)
	assert.Equal(t, 5.33, rate)
}

func TestFred_SkipsMissingValueMarkers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(fredBody(".", "5.25"))
	}))
	defer srv.Close()

	fred := NewFred(srv.URL, "key", time.Second, nil, zerolog.Nop())
	rate, err := fred.FetchMacroRate(context.Background(), "FEDFUNDS")
	require.NoError(t, err)
	assert.Equal(t, 5.25, rate)
}

func TestFred_FallsBackToLatestAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Windowed query sets observation_start; the fallback does not.
		if r.URL.Query().Get("observation_start") != "" {
			json.NewEncoder(w).Encode(fredBody())
			return
		}
		json.NewEncoder(w).Encode(fredBody("4.75"))
	}))
	defer srv.Close()

	fred := NewFred(srv.URL, "key", time.Second, nil, zerolog.Nop())
	rate, err := fred.FetchMacroRate(context.Background(), "FEDFUNDS")
	require.NoError(t, err)
	assert.Equal(t, 4.75, rate)
}

func TestFred_EmptySeriesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(fredBody())
	}))
	defer srv.Close()

	fred := NewFred(srv.URL, "key", time.Second, nil, zerolog.Nop())
	_, err := fred.FetchMacroRate(context.Background(), "EMPTY")
	var provErr *Error
	require.True(t, errors.As(err, &provErr))
}

func TestSafeFloat(t *testing.T) {
	assert.Equal(t, 0.0, safeFloat("None"))
	assert.Equal(t, 0.0, safeFloat(""))
	assert.Equal(t, 0.0, safeFloat("."))
	assert.Equal(t, 0.0, safeFloat("garbage"))
	assert.Equal(t, -12.5, safeFloat("-12.5"))
}
