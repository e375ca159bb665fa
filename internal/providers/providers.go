// Package providers implements the HTTP clients for the upstream
// financial, macro and news data sources. Every client carries the same
// resilience stack: a token-bucket rate limiter, a circuit breaker, and
// bounded exponential backoff. Failures after retries surface as a
// ProviderError; callers skip the affected entity and continue.
package providers

import (
	"context"
	"fmt"
	"time"
)

// BalanceSheet holds the balance sheet line items the pipeline consumes.
type BalanceSheet struct {
	TotalAssets        float64
	TotalLiabilities   float64
	TotalEquity        float64
	CurrentAssets      float64
	CurrentLiabilities float64
	LongTermDebt       float64
	SharesOutstanding  float64
}

// IncomeStatement holds the income statement line items.
type IncomeStatement struct {
	Revenue         float64
	GrossProfit     float64
	EBIT            float64
	OperatingIncome float64
	PretaxIncome    float64
	NetIncome       float64
}

// CashFlow holds the cash flow statement line items. Capital expenditure
// is reported negative, per statement convention.
type CashFlow struct {
	OperatingCashFlow   float64
	CapitalExpenditures float64
}

// FinancialStatements is the raw per-ticker statement bundle.
type FinancialStatements struct {
	Ticker          string
	BalanceSheet    BalanceSheet
	IncomeStatement IncomeStatement
	CashFlow        CashFlow
}

// PricePoint is one daily close observation.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// RawArticle is one unprocessed news item from the news feed.
type RawArticle struct {
	Title          string
	Summary        string
	SentimentScore float64
	TimePublished  string
}

// FinancialsProvider fetches statement data for a ticker.
type FinancialsProvider interface {
	FetchFinancials(ctx context.Context, ticker string) (*FinancialStatements, error)
}

// MacroProvider fetches a macroeconomic indicator series value.
type MacroProvider interface {
	FetchMacroRate(ctx context.Context, seriesID string) (float64, error)
}

// PriceProvider fetches the trailing daily close history for a ticker.
type PriceProvider interface {
	FetchPriceHistory(ctx context.Context, ticker string, days int) ([]PricePoint, error)
}

// NewsProvider fetches recent news for a ticker.
type NewsProvider interface {
	FetchNews(ctx context.Context, ticker string, limit int) ([]RawArticle, error)
}

// Error wraps an upstream fetch failure with its provider and operation.
type Error struct {
	Provider string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
