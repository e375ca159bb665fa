package model

import (
	"fmt"
	"sort"
)

// Node is one node of a fitted CART tree, stored in a flat array so the
// whole tree serializes to JSON without pointer chasing. Feature == -1
// marks a leaf.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	// Value holds the leaf prediction: a single mean for regression, a
	// normalized class distribution for classification.
	Value []float64 `json:"value"`
	// Impurity and Weight support split-importance introspection.
	Impurity float64 `json:"impurity"`
	Weight   float64 `json:"weight"`
}

// Tree is a fitted decision tree over a fixed feature schema.
type Tree struct {
	Nodes     []Node `json:"nodes"`
	NFeatures int    `json:"n_features"`
	NClasses  int    `json:"n_classes"` // 0 for regression
}

// TreeConfig bounds tree growth. MaxDepth <= 0 means unbounded.
type TreeConfig struct {
	MaxDepth    int
	MinLeafSize int
	// MaxFeatures caps the number of features considered per split; <= 0
	// considers all. The forest sets this for decorrelation.
	MaxFeatures int
	// featurePicker shuffles candidate features; nil means in-order.
	featurePicker func(n int) []int
}

type splitTask struct {
	idx    []int // row indices reaching this node
	depth  int
	parent int  // node slot to patch
	left   bool // which child of the parent
}

// TrainRegressionTree fits a variance-reducing CART regression tree.
// Fitting is deterministic for a fixed training set and configuration.
func TrainRegressionTree(x [][]float64, y []float64, cfg TreeConfig) (*Tree, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("regression tree: empty training set")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("regression tree: %d rows but %d targets", len(x), len(y))
	}
	w := make([]float64, len(y))
	for i := range w {
		w[i] = 1
	}
	t := &Tree{NFeatures: len(x[0])}
	t.grow(x, y, w, cfg, regressionImpurity, regressionLeaf)
	return t, nil
}

// TrainClassificationTree fits a weighted-gini CART classification tree.
// y holds class indices in [0, nClasses); w holds per-sample weights
// (class-balanced weighting is applied by the caller).
func TrainClassificationTree(x [][]float64, y []int, w []float64, nClasses int, cfg TreeConfig) (*Tree, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("classification tree: empty training set")
	}
	if len(x) != len(y) || len(x) != len(w) {
		return nil, fmt.Errorf("classification tree: rows/targets/weights length mismatch")
	}
	yf := make([]float64, len(y))
	for i, c := range y {
		yf[i] = float64(c)
	}
	t := &Tree{NFeatures: len(x[0]), NClasses: nClasses}
	t.grow(x, yf, w, cfg, giniImpurity(nClasses), classLeaf(nClasses))
	return t, nil
}

type impurityFn func(y, w []float64, idx []int) float64
type leafFn func(y, w []float64, idx []int) []float64

func (t *Tree) grow(x [][]float64, y, w []float64, cfg TreeConfig, impurity impurityFn, leaf leafFn) {
	root := make([]int, len(x))
	for i := range root {
		root[i] = i
	}
	stack := []splitTask{{idx: root, depth: 0, parent: -1}}

	for len(stack) > 0 {
		task := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		imp := impurity(y, w, task.idx)
		node := Node{
			Feature:  -1,
			Left:     -1,
			Right:    -1,
			Impurity: imp,
			Weight:   totalWeight(w, task.idx),
		}

		var split *bestSplit
		if (cfg.MaxDepth <= 0 || task.depth < cfg.MaxDepth) && imp > 1e-12 && len(task.idx) >= 2*maxInt(cfg.MinLeafSize, 1) {
			split = findBestSplit(x, y, w, task.idx, cfg, impurity)
		}

		slot := len(t.Nodes)
		if split == nil {
			node.Value = leaf(y, w, task.idx)
			t.Nodes = append(t.Nodes, node)
		} else {
			node.Feature = split.feature
			node.Threshold = split.threshold
			t.Nodes = append(t.Nodes, node)
			// Children patch their slot into the parent when popped. Push
			// right first so the left child lands adjacent to its parent.
			stack = append(stack,
				splitTask{idx: split.right, depth: task.depth + 1, parent: slot, left: false},
				splitTask{idx: split.left, depth: task.depth + 1, parent: slot, left: true},
			)
		}

		if task.parent >= 0 {
			if task.left {
				t.Nodes[task.parent].Left = slot
			} else {
				t.Nodes[task.parent].Right = slot
			}
		}
	}
}

type bestSplit struct {
	feature   int
	threshold float64
	left      []int
	right     []int
}

func findBestSplit(x [][]float64, y, w []float64, idx []int, cfg TreeConfig, impurity impurityFn) *bestSplit {
	parentImp := impurity(y, w, idx)
	parentW := totalWeight(w, idx)
	minLeaf := maxInt(cfg.MinLeafSize, 1)

	nFeatures := len(x[idx[0]])
	order := make([]int, nFeatures)
	for i := range order {
		order[i] = i
	}
	if cfg.featurePicker != nil {
		order = cfg.featurePicker(nFeatures)
	}
	limit := nFeatures
	if cfg.MaxFeatures > 0 && cfg.MaxFeatures < limit {
		limit = cfg.MaxFeatures
	}

	var best *bestSplit
	bestGain := 1e-12

	for _, f := range order[:limit] {
		sorted := append([]int(nil), idx...)
		sort.Slice(sorted, func(a, b int) bool { return x[sorted[a]][f] < x[sorted[b]][f] })

		for i := minLeaf; i <= len(sorted)-minLeaf; i++ {
			lo, hi := x[sorted[i-1]][f], x[sorted[i]][f]
			if lo == hi {
				continue
			}
			left, right := sorted[:i], sorted[i:]
			lw, rw := totalWeight(w, left), totalWeight(w, right)
			if lw == 0 || rw == 0 {
				continue
			}
			gain := parentImp - (lw*impurity(y, w, left)+rw*impurity(y, w, right))/parentW
			if gain > bestGain {
				bestGain = gain
				best = &bestSplit{
					feature:   f,
					threshold: (lo + hi) / 2,
					left:      append([]int(nil), left...),
					right:     append([]int(nil), right...),
				}
			}
		}
	}
	return best
}

// Predict walks the tree and returns the leaf value vector.
func (t *Tree) Predict(x []float64) ([]float64, error) {
	if len(x) != t.NFeatures {
		return nil, fmt.Errorf("tree: expected %d features, got %d", t.NFeatures, len(x))
	}
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value, nil
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// FeatureImportances returns per-feature normalized weighted impurity
// decrease summed over all internal nodes.
func (t *Tree) FeatureImportances() []float64 {
	imp := make([]float64, t.NFeatures)
	for _, n := range t.Nodes {
		if n.Feature < 0 {
			continue
		}
		l, r := t.Nodes[n.Left], t.Nodes[n.Right]
		decrease := n.Weight*n.Impurity - l.Weight*l.Impurity - r.Weight*r.Impurity
		if decrease > 0 {
			imp[n.Feature] += decrease
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

func regressionImpurity(y, w []float64, idx []int) float64 {
	var sum, sw float64
	for _, i := range idx {
		sum += w[i] * y[i]
		sw += w[i]
	}
	if sw == 0 {
		return 0
	}
	mean := sum / sw
	var ss float64
	for _, i := range idx {
		d := y[i] - mean
		ss += w[i] * d * d
	}
	return ss / sw
}

func regressionLeaf(y, w []float64, idx []int) []float64 {
	var sum, sw float64
	for _, i := range idx {
		sum += w[i] * y[i]
		sw += w[i]
	}
	if sw == 0 {
		return []float64{0}
	}
	return []float64{sum / sw}
}

func giniImpurity(nClasses int) impurityFn {
	return func(y, w []float64, idx []int) float64 {
		counts := make([]float64, nClasses)
		var sw float64
		for _, i := range idx {
			counts[int(y[i])] += w[i]
			sw += w[i]
		}
		if sw == 0 {
			return 0
		}
		gini := 1.0
		for _, c := range counts {
			p := c / sw
			gini -= p * p
		}
		return gini
	}
}

func classLeaf(nClasses int) leafFn {
	return func(y, w []float64, idx []int) []float64 {
		dist := make([]float64, nClasses)
		var sw float64
		for _, i := range idx {
			dist[int(y[i])] += w[i]
			sw += w[i]
		}
		if sw > 0 {
			for c := range dist {
				dist[c] /= sw
			}
		}
		return dist
	}
}

func totalWeight(w []float64, idx []int) float64 {
	var sw float64
	for _, i := range idx {
		sw += w[i]
	}
	return sw
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
