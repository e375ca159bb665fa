// Package ingest runs the feature-ingestion stage: fetch raw statement,
// price and macro data for a batch of tickers on a bounded worker pool
// and turn each into the normalized scoring feature vector. All network
// I/O happens here, strictly before the scoring core runs.
package ingest

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/credtech/credintel/internal/features"
	"github.com/credtech/credintel/internal/providers"
)

// DefaultWorkers bounds the fetch pool.
const DefaultWorkers = 5

// SkipRecorder counts tickers skipped on upstream failure. Optional.
type SkipRecorder interface {
	RecordSkip(ticker string)
}

// Pipeline fetches and processes multiple tickers concurrently. Partial
// failures skip the affected ticker and never abort the batch.
type Pipeline struct {
	financials providers.FinancialsProvider
	prices     providers.PriceProvider
	macro      providers.MacroProvider
	builder    *features.Builder

	macroSeries string
	priceDays   int
	workers     int

	skips SkipRecorder
	log   zerolog.Logger
}

// Config tunes the pipeline.
type Config struct {
	MacroSeries string
	PriceDays   int
	Workers     int
}

// New assembles a pipeline. Zero config fields fall back to defaults.
func New(fin providers.FinancialsProvider, prices providers.PriceProvider, macro providers.MacroProvider,
	builder *features.Builder, cfg Config, skips SkipRecorder, log zerolog.Logger) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.PriceDays <= 0 {
		cfg.PriceDays = 30
	}
	if cfg.MacroSeries == "" {
		cfg.MacroSeries = providers.DefaultMacroSeries
	}
	return &Pipeline{
		financials:  fin,
		prices:      prices,
		macro:       macro,
		builder:     builder,
		macroSeries: cfg.MacroSeries,
		priceDays:   cfg.PriceDays,
		workers:     cfg.Workers,
		skips:       skips,
		log:         log,
	}
}

// Result is one ticker's ingestion outcome.
type Result struct {
	Ticker     string
	Vector     features.Vector
	Statements *providers.FinancialStatements
}

// Run ingests the batch. The macro rate is fetched once and shared by
// every worker; a macro failure fails the whole batch since no feature
// vector is complete without it.
func (p *Pipeline) Run(ctx context.Context, tickers []string) (map[string]Result, error) {
	macroRate, err := p.macro.FetchMacroRate(ctx, p.macroSeries)
	if err != nil {
		return nil, err
	}

	jobs := make(chan string)
	out := make(chan Result)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				res, err := p.ingestOne(ctx, ticker, macroRate)
				if err != nil {
					p.log.Warn().Err(err).Str("ticker", ticker).Msg("skipping ticker")
					if p.skips != nil {
						p.skips.RecordSkip(ticker)
					}
					continue
				}
				out <- res
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, t := range tickers {
			select {
			case jobs <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make(map[string]Result, len(tickers))
	for res := range out {
		results[res.Ticker] = res
	}
	return results, ctx.Err()
}

func (p *Pipeline) ingestOne(ctx context.Context, ticker string, macroRate float64) (Result, error) {
	stmts, err := p.financials.FetchFinancials(ctx, ticker)
	if err != nil {
		return Result{}, err
	}
	history, err := p.prices.FetchPriceHistory(ctx, ticker, p.priceDays)
	if err != nil {
		return Result{}, err
	}

	closes := make([]float64, len(history))
	for i, pt := range history {
		closes[i] = pt.Close
	}

	raw := features.Statements{
		Ticker:            ticker,
		TotalAssets:       stmts.BalanceSheet.TotalAssets,
		TotalLiabilities:  stmts.BalanceSheet.TotalLiabilities,
		TotalEquity:       stmts.BalanceSheet.TotalEquity,
		Revenue:           stmts.IncomeStatement.Revenue,
		NetIncome:         stmts.IncomeStatement.NetIncome,
		OperatingCashFlow: stmts.CashFlow.OperatingCashFlow,
		ClosePrices:       closes,
	}

	return Result{
		Ticker:     ticker,
		Vector:     p.builder.Build(raw, macroRate),
		Statements: stmts,
	}, nil
}
