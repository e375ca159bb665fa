// Package app wires the ingestion, classification, scoring and
// explanation stages into the end-to-end assessment flow.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/credtech/credintel/internal/explain"
	"github.com/credtech/credintel/internal/features"
	"github.com/credtech/credintel/internal/ingest"
	"github.com/credtech/credintel/internal/metrics"
	"github.com/credtech/credintel/internal/news"
	"github.com/credtech/credintel/internal/providers"
	"github.com/credtech/credintel/internal/rating"
	"github.com/credtech/credintel/internal/scoring"
	"github.com/credtech/credintel/internal/store"
)

// Request names one company to assess. The sector label feeds the
// classifier's one-hot encoding.
type Request struct {
	Ticker string `json:"ticker"`
	Sector string `json:"sector"`
}

// Assessor runs the full pipeline for a batch of companies.
type Assessor struct {
	pipeline   *ingest.Pipeline
	builder    *features.Builder
	classifier *rating.BucketClassifier
	expander   *rating.Expander
	engine     *scoring.Engine
	news       providers.NewsProvider
	store      *store.Store
	collector  *metrics.Collector
	log        zerolog.Logger
}

// NewAssessor assembles the pipeline. The news provider and store may be
// nil; assessments then run without the news adjustment or persistence.
func NewAssessor(pipeline *ingest.Pipeline, builder *features.Builder,
	classifier *rating.BucketClassifier, expander *rating.Expander, engine *scoring.Engine,
	newsProvider providers.NewsProvider, st *store.Store, collector *metrics.Collector,
	log zerolog.Logger) *Assessor {
	return &Assessor{
		pipeline:   pipeline,
		builder:    builder,
		classifier: classifier,
		expander:   expander,
		engine:     engine,
		news:       newsProvider,
		store:      st,
		collector:  collector,
		log:        log,
	}
}

// AssessBatch ingests and assesses every requested company. Tickers that
// fail upstream or in classification are skipped, never aborting the
// batch; the returned slice holds the completed assessments.
func (a *Assessor) AssessBatch(ctx context.Context, reqs []Request) ([]store.Assessment, error) {
	tickers := make([]string, len(reqs))
	sectors := make(map[string]string, len(reqs))
	for i, r := range reqs {
		tickers[i] = r.Ticker
		sectors[r.Ticker] = r.Sector
	}

	results, err := a.pipeline.Run(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("assess: ingest: %w", err)
	}

	var out []store.Assessment
	for _, r := range reqs {
		res, ok := results[r.Ticker]
		if !ok {
			continue
		}
		assessment, err := a.assessOne(ctx, r, res)
		if err != nil {
			a.log.Warn().Err(err).Str("ticker", r.Ticker).Msg("assessment failed")
			a.collector.RecordSkip(r.Ticker)
			continue
		}
		out = append(out, assessment)
	}
	return out, nil
}

func (a *Assessor) assessOne(ctx context.Context, req Request, res ingest.Result) (store.Assessment, error) {
	ratios := a.builder.BuildRatios(fundamentalsFrom(res.Statements, req.Sector))

	bucket, bucketProb, err := a.classifier.Predict(req.Sector, ratios)
	if err != nil {
		return store.Assessment{}, err
	}
	fineRating, _, err := a.expander.Expand(bucket, bucketProb)
	if err != nil {
		return store.Assessment{}, err
	}

	score, err := a.engine.Predict(res.Vector)
	if err != nil {
		return store.Assessment{}, err
	}
	score = clampScore(score + a.newsAdjustment(ctx, req.Ticker))

	names, values := a.engine.FeatureImportances()
	importances := make(map[string]float64, len(names))
	for i, name := range names {
		importances[name] = values[i]
	}
	explanation := explain.Explain(score, importances, res.Vector, nil)

	a.collector.RecordAssessment(score)

	assessment := store.Assessment{
		ID:          uuid.New(),
		Ticker:      req.Ticker,
		Sector:      req.Sector,
		Bucket:      bucket,
		BucketProb:  bucketProb,
		Rating:      fineRating,
		Score:       score,
		Explanation: explanation,
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.store.Insert(ctx, assessment); err != nil {
		a.log.Warn().Err(err).Str("ticker", req.Ticker).Msg("persist failed")
	}

	obs := store.Observation{
		ID:        uuid.New(),
		Ticker:    req.Ticker,
		Features:  featureMap(res.Vector),
		Label:     score,
		CreatedAt: assessment.CreatedAt,
	}
	if err := a.store.InsertObservation(ctx, obs); err != nil {
		a.log.Warn().Err(err).Str("ticker", req.Ticker).Msg("persist observation failed")
	}
	return assessment, nil
}

func featureMap(v features.Vector) map[string]float64 {
	names, values := v.Names(), v.Values()
	out := make(map[string]float64, len(names))
	for i, name := range names {
		out[name] = values[i]
	}
	return out
}

// newsAdjustment sums the per-article adjustments from recent headlines.
// News is a soft signal: any fetch failure means no adjustment.
func (a *Assessor) newsAdjustment(ctx context.Context, ticker string) float64 {
	if a.news == nil {
		return 0
	}
	raw, err := a.news.FetchNews(ctx, ticker, 10)
	if err != nil {
		a.log.Warn().Err(err).Str("ticker", ticker).Msg("news fetch failed")
		return 0
	}
	adj := 0.0
	for _, r := range raw {
		article := news.Process(r.Title, r.Summary, r.SentimentScore, r.TimePublished)
		adj += article.Adjustment
	}
	return adj
}

func fundamentalsFrom(s *providers.FinancialStatements, sector string) features.Fundamentals {
	return features.Fundamentals{
		Ticker:              s.Ticker,
		Sector:              sector,
		CurrentAssets:       s.BalanceSheet.CurrentAssets,
		CurrentLiabilities:  s.BalanceSheet.CurrentLiabilities,
		LongTermDebt:        s.BalanceSheet.LongTermDebt,
		TotalEquity:         s.BalanceSheet.TotalEquity,
		TotalLiabilities:    s.BalanceSheet.TotalLiabilities,
		TotalAssets:         s.BalanceSheet.TotalAssets,
		SharesOutstanding:   s.BalanceSheet.SharesOutstanding,
		Revenue:             s.IncomeStatement.Revenue,
		GrossProfit:         s.IncomeStatement.GrossProfit,
		EBIT:                s.IncomeStatement.EBIT,
		OperatingIncome:     s.IncomeStatement.OperatingIncome,
		PretaxIncome:        s.IncomeStatement.PretaxIncome,
		NetIncome:           s.IncomeStatement.NetIncome,
		OperatingCashFlow:   s.CashFlow.OperatingCashFlow,
		CapitalExpenditures: s.CashFlow.CapitalExpenditures,
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
