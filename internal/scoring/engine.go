// Package scoring implements the incremental credit scoring engine: a
// shallow regression tree over six normalized features, refit from
// scratch on a bounded in-memory training set whenever new labeled
// observations arrive. Depth is capped at 3 so every leaf corresponds to
// an enumerable, auditable rule path.
package scoring

import (
	"fmt"
	"sync"

	"github.com/credtech/credintel/internal/features"
	"github.com/credtech/credintel/internal/model"
)

// MaxDepth bounds the regression tree. Interpretability over accuracy.
const MaxDepth = 3

// DefaultMaxObservations bounds the in-memory training window. Oldest
// observations are dropped first once the window is full.
const DefaultMaxObservations = 1024

// bootstrap is the fixed seed set spanning plausible feature ranges.
// Construction always fits on it, so the engine is never unfit.
var bootstrapX = [][]float64{
	// debt_to_equity, current_ratio, profit_margin, roa, price_volatility, macro_interest_rate
	{0.5, 2.0, 0.10, 0.05, 0.02, 0.05},
	{1.0, 1.5, 0.05, 0.03, 0.03, 0.04},
	{2.0, 1.0, -0.10, -0.02, 0.05, 0.06},
	{0.2, 2.5, 0.15, 0.07, 0.01, 0.03},
	{1.5, 1.2, 0.08, 0.04, 0.04, 0.05},
}

var bootstrapY = []float64{80, 70, 50, 90, 65}

// Engine owns its training set exclusively and mutates it only through
// Retrain. A single mutex serializes Retrain, Predict and
// FeatureImportances; state is small enough that finer locking buys
// nothing. Construct one per owner, never share a package singleton.
type Engine struct {
	mu     sync.Mutex
	x      [][]float64
	y      []float64
	tree   *model.Tree
	maxObs int
}

// NewEngine constructs an engine seeded with the bootstrap set and fits
// it immediately. maxObservations <= 0 selects the default window.
func NewEngine(maxObservations int) (*Engine, error) {
	if maxObservations <= 0 {
		maxObservations = DefaultMaxObservations
	}
	if maxObservations < len(bootstrapX) {
		return nil, fmt.Errorf("scoring engine: window %d smaller than bootstrap set %d",
			maxObservations, len(bootstrapX))
	}
	e := &Engine{maxObs: maxObservations}
	for i := range bootstrapX {
		e.x = append(e.x, append([]float64(nil), bootstrapX[i]...))
		e.y = append(e.y, bootstrapY[i])
	}
	if err := e.refit(); err != nil {
		return nil, err
	}
	return e, nil
}

// Retrain appends the new labeled observations, trims the window to the
// most recent observations, and refits the tree from scratch. Called with
// no new data it simply refits the existing set, which is deterministic.
// Each vector must carry exactly the six scoring feature names; columns
// are reordered to the trained schema, any other shape is a schema error.
func (e *Engine) Retrain(newX []features.Vector, newY []float64) error {
	if len(newX) != len(newY) {
		return fmt.Errorf("scoring engine: %d feature vectors but %d labels", len(newX), len(newY))
	}
	aligned := make([][]float64, len(newX))
	for i, v := range newX {
		row, err := v.Align(features.ScoringSchema)
		if err != nil {
			return err
		}
		if newY[i] < 0 || newY[i] > 100 {
			return fmt.Errorf("scoring engine: label %.2f outside [0,100]", newY[i])
		}
		aligned[i] = row
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.x = append(e.x, aligned...)
	e.y = append(e.y, newY...)
	if over := len(e.x) - e.maxObs; over > 0 {
		e.x = append([][]float64(nil), e.x[over:]...)
		e.y = append([]float64(nil), e.y[over:]...)
	}
	return e.refit()
}

func (e *Engine) refit() error {
	tree, err := model.TrainRegressionTree(e.x, e.y, model.TreeConfig{
		MaxDepth:    MaxDepth,
		MinLeafSize: 1,
	})
	if err != nil {
		return fmt.Errorf("scoring engine: refit: %w", err)
	}
	e.tree = tree
	return nil
}

// Predict returns the point estimate for one feature vector.
func (e *Engine) Predict(v features.Vector) (float64, error) {
	row, err := v.Align(features.ScoringSchema)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out, err := e.tree.Predict(row)
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// FeatureImportances returns the fitted tree's global split importances
// keyed by feature name, in schema order. This is a model-level view, not
// a per-example attribution.
func (e *Engine) FeatureImportances() ([]string, []float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	imp := e.tree.FeatureImportances()
	names := append([]string(nil), features.ScoringSchema...)
	return names, imp
}

// Observations reports the current training set size.
func (e *Engine) Observations() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.x)
}
