package providers

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// DefaultAlphaVantageURL is the production endpoint.
const DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

// AlphaVantage serves financial statements, daily prices and news
// sentiment from the Alpha Vantage REST API.
type AlphaVantage struct {
	c       *client
	baseURL string
	apiKey  string
}

// NewAlphaVantage builds the client. baseURL is overridable for tests.
func NewAlphaVantage(baseURL, apiKey string, timeout time.Duration, retries RetryRecorder, log zerolog.Logger) *AlphaVantage {
	if baseURL == "" {
		baseURL = DefaultAlphaVantageURL
	}
	return &AlphaVantage{
		// Free-tier budget is 5 requests/minute; keep under it. Burst 5
		// lets one statements-plus-prices fetch go out back to back.
		c:       newClient("alphavantage", timeout, 5.0/60.0, 5, retries, log),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (av *AlphaVantage) query(function string, params map[string]string) string {
	q := url.Values{}
	q.Set("function", function)
	q.Set("apikey", av.apiKey)
	for k, v := range params {
		q.Set(k, v)
	}
	return av.baseURL + "?" + q.Encode()
}

type avReport map[string]string

type avStatementResponse struct {
	AnnualReports []avReport `json:"annualReports"`
}

// FetchFinancials pulls the latest annual balance sheet, income statement
// and cash flow for a ticker. Missing fields decode to 0 and are handled
// by the feature builder's zero guards.
func (av *AlphaVantage) FetchFinancials(ctx context.Context, ticker string) (*FinancialStatements, error) {
	bs, err := av.latestReport(ctx, "BALANCE_SHEET", ticker)
	if err != nil {
		return nil, err
	}
	is, err := av.latestReport(ctx, "INCOME_STATEMENT", ticker)
	if err != nil {
		return nil, err
	}
	cf, err := av.latestReport(ctx, "CASH_FLOW", ticker)
	if err != nil {
		return nil, err
	}

	return &FinancialStatements{
		Ticker: ticker,
		BalanceSheet: BalanceSheet{
			TotalAssets:        safeFloat(bs["totalAssets"]),
			TotalLiabilities:   safeFloat(bs["totalLiabilities"]),
			TotalEquity:        safeFloat(bs["totalShareholderEquity"]),
			CurrentAssets:      safeFloat(bs["totalCurrentAssets"]),
			CurrentLiabilities: safeFloat(bs["totalCurrentLiabilities"]),
			LongTermDebt:       safeFloat(bs["longTermDebtNoncurrent"]),
			SharesOutstanding:  safeFloat(bs["commonStockSharesOutstanding"]),
		},
		IncomeStatement: IncomeStatement{
			Revenue:         safeFloat(is["totalRevenue"]),
			GrossProfit:     safeFloat(is["grossProfit"]),
			EBIT:            safeFloat(is["ebit"]),
			OperatingIncome: safeFloat(is["operatingIncome"]),
			PretaxIncome:    safeFloat(is["incomeBeforeTax"]),
			NetIncome:       safeFloat(is["netIncome"]),
		},
		CashFlow: CashFlow{
			OperatingCashFlow:   safeFloat(cf["operatingCashflow"]),
			CapitalExpenditures: safeFloat(cf["capitalExpenditures"]),
		},
	}, nil
}

func (av *AlphaVantage) latestReport(ctx context.Context, function, ticker string) (avReport, error) {
	var resp avStatementResponse
	u := av.query(function, map[string]string{"symbol": ticker})
	if err := av.c.getJSON(ctx, function, u, &resp); err != nil {
		return nil, err
	}
	if len(resp.AnnualReports) == 0 {
		return nil, &Error{Provider: "alphavantage", Op: function,
			Err: fmt.Errorf("no annual reports for %s", ticker)}
	}
	return resp.AnnualReports[0], nil
}

type avDailyResponse struct {
	Series map[string]map[string]string `json:"Time Series (Daily)"`
}

// FetchPriceHistory returns the trailing daily closes, oldest first.
func (av *AlphaVantage) FetchPriceHistory(ctx context.Context, ticker string, days int) ([]PricePoint, error) {
	var resp avDailyResponse
	u := av.query("TIME_SERIES_DAILY", map[string]string{"symbol": ticker, "outputsize": "compact"})
	if err := av.c.getJSON(ctx, "TIME_SERIES_DAILY", u, &resp); err != nil {
		return nil, err
	}

	points := make([]PricePoint, 0, len(resp.Series))
	cutoff := time.Now().AddDate(0, 0, -days)
	for date, fields := range resp.Series {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}
		if d.Before(cutoff) {
			continue
		}
		points = append(points, PricePoint{Date: d, Close: safeFloat(fields["4. close"])})
	}
	sort.Slice(points, func(a, b int) bool { return points[a].Date.Before(points[b].Date) })
	return points, nil
}

type avNewsResponse struct {
	Feed []struct {
		Title                 string `json:"title"`
		Summary               string `json:"summary"`
		TimePublished         string `json:"time_published"`
		OverallSentimentScore float64 `json:"overall_sentiment_score"`
	} `json:"feed"`
}

// FetchNews returns up to limit recent articles for a ticker. An empty
// feed is not an error; the caller renders what it gets.
func (av *AlphaVantage) FetchNews(ctx context.Context, ticker string, limit int) ([]RawArticle, error) {
	var resp avNewsResponse
	u := av.query("NEWS_SENTIMENT", map[string]string{
		"tickers": ticker,
		"topics":  "financial",
		"limit":   fmt.Sprintf("%d", limit),
	})
	if err := av.c.getJSON(ctx, "NEWS_SENTIMENT", u, &resp); err != nil {
		return nil, err
	}
	articles := make([]RawArticle, 0, len(resp.Feed))
	for _, item := range resp.Feed {
		articles = append(articles, RawArticle{
			Title:          item.Title,
			Summary:        item.Summary,
			SentimentScore: item.OverallSentimentScore,
			TimePublished:  item.TimePublished,
		})
	}
	return articles, nil
}
