package main

import (
	"context"

	"github.com/credtech/credintel/internal/app"
	"github.com/credtech/credintel/internal/config"
	"github.com/credtech/credintel/internal/features"
	"github.com/credtech/credintel/internal/ingest"
	"github.com/credtech/credintel/internal/metrics"
	"github.com/credtech/credintel/internal/providers"
	"github.com/credtech/credintel/internal/rating"
	"github.com/credtech/credintel/internal/scoring"
	"github.com/credtech/credintel/internal/store"
)

// stack holds the fully wired assessment pipeline.
type stack struct {
	assessor  *app.Assessor
	collector *metrics.Collector
	store     *store.Store
}

// buildStack wires providers, artifacts, scoring and persistence from
// config. The store is nil when no DSN is configured; persistence is
// then skipped.
func buildStack(cfg *config.Config) (*stack, error) {
	collector := metrics.NewCollector()

	av := providers.NewAlphaVantage(cfg.Providers.AlphaVantage.BaseURL,
		cfg.Providers.AlphaVantage.APIKey, cfg.Providers.AlphaVantage.Timeout, collector, logger)
	fred := providers.NewFred(cfg.Providers.Fred.BaseURL,
		cfg.Providers.Fred.APIKey, cfg.Providers.Fred.Timeout, collector, logger)

	builder := features.NewBuilder(logger, collector)
	pipeline := ingest.New(av, av, fred, builder, ingest.Config{
		MacroSeries: cfg.Ingest.MacroSeries,
		PriceDays:   cfg.Ingest.PriceDays,
		Workers:     cfg.Ingest.Workers,
	}, collector, logger)

	classifier, err := rating.LoadBucketClassifier(cfg.Artifacts.Dir)
	if err != nil {
		return nil, err
	}
	expander, err := rating.LoadExpander(cfg.Artifacts.Dir)
	if err != nil {
		return nil, err
	}
	engine, err := scoring.NewEngine(cfg.Scoring.MaxObservations)
	if err != nil {
		return nil, err
	}

	var st *store.Store
	if cfg.Database.DSN != "" {
		st, err = store.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return nil, err
		}
		warmEngine(st, engine, cfg.Scoring.MaxObservations)
	}

	assessor := app.NewAssessor(pipeline, builder, classifier, expander, engine, av, st, collector, logger)
	return &stack{assessor: assessor, collector: collector, store: st}, nil
}

// warmEngine replays stored observations so the scoring engine resumes
// from where the last run left off. Best effort: a fresh database or a
// schema not yet created just means a cold engine.
func warmEngine(st *store.Store, engine *scoring.Engine, limit int) {
	obs, err := st.Observations(context.Background(), limit)
	if err != nil {
		logger.Warn().Err(err).Msg("observation replay failed")
		return
	}
	if len(obs) == 0 {
		return
	}
	x := make([]features.Vector, 0, len(obs))
	y := make([]float64, 0, len(obs))
	for _, o := range obs {
		values := make([]float64, len(features.ScoringSchema))
		for i, name := range features.ScoringSchema {
			values[i] = o.Features[name]
		}
		v, err := features.NewVector(features.ScoringSchema, values)
		if err != nil {
			continue
		}
		x = append(x, v)
		y = append(y, o.Label)
	}
	if err := engine.Retrain(x, y); err != nil {
		logger.Warn().Err(err).Int("observations", len(x)).Msg("engine warm-up failed")
		return
	}
	logger.Info().Int("observations", len(x)).Msg("engine warmed from stored observations")
}

func (s *stack) close() {
	if err := s.store.Close(); err != nil {
		logger.Warn().Err(err).Msg("store close failed")
	}
}
