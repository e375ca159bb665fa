package features

import (
	"math"

	"github.com/rs/zerolog"
)

// ScoringSchema is the feature order the scoring engine is trained with.
var ScoringSchema = []string{
	"debt_to_equity",
	"current_ratio",
	"profit_margin",
	"roa",
	"price_volatility",
	"macro_interest_rate",
}

// Statements holds the raw statement fields and trailing close prices for
// one issuer. Missing upstream fields arrive as zero; every downstream
// ratio guards its denominator so a zero never produces NaN or Inf.
type Statements struct {
	Ticker            string
	TotalAssets       float64
	TotalLiabilities  float64
	TotalEquity       float64
	Revenue           float64
	NetIncome         float64
	OperatingCashFlow float64
	ClosePrices       []float64 // oldest first, trailing ~30 day window
}

// QualityRecorder counts degraded inputs for data-quality monitoring.
// Degraded inputs are imputed, logged and counted, never propagated as
// failures.
type QualityRecorder interface {
	RecordDegradedInput(ticker, field string)
}

// Builder turns raw statement fields plus a macro rate into the bounded,
// normalized scoring feature vector.
type Builder struct {
	log     zerolog.Logger
	quality QualityRecorder
}

// NewBuilder creates a feature builder. quality may be nil.
func NewBuilder(log zerolog.Logger, quality QualityRecorder) *Builder {
	return &Builder{log: log, quality: quality}
}

// Build produces the six-feature scoring vector. Zero-guard policy:
// current_ratio falls back to 1 when liabilities are zero, every other
// guarded ratio falls back to 0. debt_to_equity and current_ratio are
// clamped and rescaled to [0,1] to bound outlier influence.
func (b *Builder) Build(raw Statements, macroRate float64) Vector {
	debtToEquity := b.ratio(raw.Ticker, "debt_to_equity", raw.TotalLiabilities, raw.TotalEquity, 0)
	currentRatio := b.ratio(raw.Ticker, "current_ratio", raw.TotalAssets, raw.TotalLiabilities, 1)
	profitMargin := b.ratio(raw.Ticker, "profit_margin", raw.NetIncome, raw.Revenue, 0)
	roa := b.ratio(raw.Ticker, "roa", raw.NetIncome, raw.TotalAssets, 0)

	values := []float64{
		clampScale(debtToEquity, 5),
		clampScale(currentRatio, 3),
		profitMargin,
		roa,
		PriceVolatility(raw.ClosePrices),
		macroRate,
	}

	v, _ := NewVector(ScoringSchema, values)
	return v
}

func (b *Builder) ratio(ticker, name string, num, den, fallback float64) float64 {
	if den == 0 {
		b.log.Warn().Str("ticker", ticker).Str("feature", name).
			Float64("fallback", fallback).Msg("zero denominator, imputing fallback")
		if b.quality != nil {
			b.quality.RecordDegradedInput(ticker, name)
		}
		return fallback
	}
	return num / den
}

// clampScale clamps v to [0, hi] and rescales to [0,1].
func clampScale(v, hi float64) float64 {
	if v < 0 {
		return 0
	}
	if v > hi {
		return 1
	}
	return v / hi
}

// PriceVolatility is the sample standard deviation of day-over-day
// percentage price changes. Fewer than two usable changes yields 0, so a
// short or empty window degrades to a neutral feature instead of NaN.
func PriceVolatility(prices []float64) float64 {
	changes := make([]float64, 0, len(prices))
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		changes = append(changes, prices[i]/prices[i-1]-1)
	}
	if len(changes) < 2 {
		return 0
	}
	mean := 0.0
	for _, c := range changes {
		mean += c
	}
	mean /= float64(len(changes))
	ss := 0.0
	for _, c := range changes {
		d := c - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(changes)-1))
}
