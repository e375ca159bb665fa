package model

import (
	"fmt"
	"sort"
)

// Preprocessor is the serialized preprocessing transform fitted at
// training time: a one-hot encoding of the categorical sector followed by
// numeric ratio passthrough. Loaded once and shared read-only.
type Preprocessor struct {
	Sectors    []string `json:"sectors"`     // sorted fitted categories
	RatioNames []string `json:"ratio_names"` // passthrough schema, in order
}

// FitPreprocessor learns the sector categories from the training set.
func FitPreprocessor(sectors []string, ratioNames []string) *Preprocessor {
	seen := make(map[string]struct{})
	var cats []string
	for _, s := range sectors {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			cats = append(cats, s)
		}
	}
	sort.Strings(cats)
	return &Preprocessor{
		Sectors:    cats,
		RatioNames: append([]string(nil), ratioNames...),
	}
}

// Transform encodes one observation: one-hot sector columns first, then
// the ratio values in schema order. A sector unseen at training time maps
// to an all-zero encoding, never an error.
func (p *Preprocessor) Transform(sector string, ratios []float64) ([]float64, error) {
	if len(ratios) != len(p.RatioNames) {
		return nil, fmt.Errorf("preprocessor: expected %d ratios, got %d", len(p.RatioNames), len(ratios))
	}
	out := make([]float64, len(p.Sectors)+len(ratios))
	for i, s := range p.Sectors {
		if s == sector {
			out[i] = 1
			break
		}
	}
	copy(out[len(p.Sectors):], ratios)
	return out, nil
}

// FeatureNames returns the post-transform column names in order.
func (p *Preprocessor) FeatureNames() []string {
	names := make([]string, 0, len(p.Sectors)+len(p.RatioNames))
	for _, s := range p.Sectors {
		names = append(names, "sector="+s)
	}
	names = append(names, p.RatioNames...)
	return names
}

// Width returns the number of post-transform columns.
func (p *Preprocessor) Width() int { return len(p.Sectors) + len(p.RatioNames) }

// LabelEncoder maps class labels to dense indices in sorted label order,
// matching the encoder serialized by the training job.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// FitLabels learns the sorted class set.
func FitLabels(labels []string) *LabelEncoder {
	seen := make(map[string]struct{})
	var classes []string
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			classes = append(classes, l)
		}
	}
	sort.Strings(classes)
	return &LabelEncoder{Classes: classes}
}

// Encode returns the index for a label.
func (e *LabelEncoder) Encode(label string) (int, error) {
	for i, c := range e.Classes {
		if c == label {
			return i, nil
		}
	}
	return 0, fmt.Errorf("label encoder: unknown label %q", label)
}

// Decode returns the label for an index.
func (e *LabelEncoder) Decode(idx int) (string, error) {
	if idx < 0 || idx >= len(e.Classes) {
		return "", fmt.Errorf("label encoder: index %d out of range [0,%d)", idx, len(e.Classes))
	}
	return e.Classes[idx], nil
}
