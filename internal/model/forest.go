package model

import (
	"fmt"
	"math"
	"math/rand"
)

// ForestConfig controls random forest training. Defaults mirror the
// offline training job the rating artifacts come from.
type ForestConfig struct {
	Estimators  int   `json:"estimators" yaml:"estimators"`
	MaxDepth    int   `json:"max_depth" yaml:"max_depth"`
	MinLeafSize int   `json:"min_leaf_size" yaml:"min_leaf_size"`
	Seed        int64 `json:"seed" yaml:"seed"`
}

// DefaultForestConfig returns the training defaults.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Estimators:  200,
		MaxDepth:    0, // unbounded, leaf size bounds growth
		MinLeafSize: 1,
		Seed:        42,
	}
}

// Forest is an ensemble of classification trees trained on bootstrap
// samples with per-split feature subsampling.
type Forest struct {
	Trees     []*Tree `json:"trees"`
	NFeatures int     `json:"n_features"`
	NClasses  int     `json:"n_classes"`
}

// BalancedWeights computes class-balanced sample weights, n/(k*count_c),
// so minority buckets carry as much total weight as majority ones.
func BalancedWeights(y []int, nClasses int) []float64 {
	counts := make([]float64, nClasses)
	for _, c := range y {
		counts[c]++
	}
	n := float64(len(y))
	k := float64(nClasses)
	w := make([]float64, len(y))
	for i, c := range y {
		w[i] = n / (k * counts[c])
	}
	return w
}

// TrainForest fits the ensemble. Deterministic for a fixed seed.
func TrainForest(x [][]float64, y []int, w []float64, nClasses int, cfg ForestConfig) (*Forest, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("forest: empty training set")
	}
	if cfg.Estimators <= 0 {
		return nil, fmt.Errorf("forest: estimators must be positive, got %d", cfg.Estimators)
	}
	nFeatures := len(x[0])
	maxFeatures := int(math.Ceil(math.Sqrt(float64(nFeatures))))
	rng := rand.New(rand.NewSource(cfg.Seed))

	f := &Forest{NFeatures: nFeatures, NClasses: nClasses}
	for t := 0; t < cfg.Estimators; t++ {
		bx := make([][]float64, len(x))
		by := make([]int, len(y))
		bw := make([]float64, len(w))
		for i := range bx {
			j := rng.Intn(len(x))
			bx[i], by[i], bw[i] = x[j], y[j], w[j]
		}
		treeCfg := TreeConfig{
			MaxDepth:    cfg.MaxDepth,
			MinLeafSize: cfg.MinLeafSize,
			MaxFeatures: maxFeatures,
			featurePicker: func(n int) []int {
				order := rng.Perm(n)
				return order
			},
		}
		tree, err := TrainClassificationTree(bx, by, bw, nClasses, treeCfg)
		if err != nil {
			return nil, fmt.Errorf("forest: tree %d: %w", t, err)
		}
		f.Trees = append(f.Trees, tree)
	}
	return f, nil
}

// PredictProba averages class distributions across all trees.
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.NFeatures {
		return nil, fmt.Errorf("forest: expected %d features, got %d", f.NFeatures, len(x))
	}
	probs := make([]float64, f.NClasses)
	for _, t := range f.Trees {
		dist, err := t.Predict(x)
		if err != nil {
			return nil, err
		}
		for c, p := range dist {
			probs[c] += p
		}
	}
	for c := range probs {
		probs[c] /= float64(len(f.Trees))
	}
	return probs, nil
}

// Predict returns the argmax class and its averaged probability. Ties
// resolve to the lowest class index, which is stable because the label
// encoder orders classes deterministically.
func (f *Forest) Predict(x []float64) (int, float64, error) {
	probs, err := f.PredictProba(x)
	if err != nil {
		return 0, 0, err
	}
	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return best, probs[best], nil
}

// FeatureImportances averages normalized split importances over trees.
func (f *Forest) FeatureImportances() []float64 {
	imp := make([]float64, f.NFeatures)
	for _, t := range f.Trees {
		for i, v := range t.FeatureImportances() {
			imp[i] += v
		}
	}
	total := 0.0
	for _, v := range imp {
		total += v
	}
	if total > 0 {
		for i := range imp {
			imp[i] /= total
		}
	}
	return imp
}
