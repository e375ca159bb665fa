package rating

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/credtech/credintel/internal/features"
	"github.com/credtech/credintel/internal/model"
)

// BucketClassifier wraps the fitted forest, its preprocessing transform
// and the label encoder. All three are loaded once at process start and
// are safe for concurrent read access.
type BucketClassifier struct {
	forest *model.Forest
	pre    *model.Preprocessor
	labels *model.LabelEncoder
}

// NewBucketClassifier assembles a classifier from fitted components.
func NewBucketClassifier(forest *model.Forest, pre *model.Preprocessor, labels *model.LabelEncoder) (*BucketClassifier, error) {
	if forest.NFeatures != pre.Width() {
		return nil, fmt.Errorf("bucket classifier: forest expects %d columns, preprocessor emits %d",
			forest.NFeatures, pre.Width())
	}
	if forest.NClasses != len(labels.Classes) {
		return nil, fmt.Errorf("bucket classifier: forest has %d classes, encoder has %d",
			forest.NClasses, len(labels.Classes))
	}
	return &BucketClassifier{forest: forest, pre: pre, labels: labels}, nil
}

// LoadBucketClassifier loads all three serialized artifacts from dir.
func LoadBucketClassifier(dir string) (*BucketClassifier, error) {
	forest, err := model.LoadForest(dir)
	if err != nil {
		return nil, err
	}
	pre, err := model.LoadPreprocessor(dir)
	if err != nil {
		return nil, err
	}
	labels, err := model.LoadLabelEncoder(dir)
	if err != nil {
		return nil, err
	}
	return NewBucketClassifier(forest, pre, labels)
}

// LoadExpander loads the distribution table artifact from dir and
// validates it against every bucket the classifier can emit.
func LoadExpander(dir string) (*Expander, error) {
	table, err := LoadDistributionTable(filepath.Join(dir, DistributionFile))
	if err != nil {
		return nil, err
	}
	if err := table.Validate(Buckets); err != nil {
		return nil, err
	}
	return NewExpander(table), nil
}

// Predict classifies one observation. The ratio vector must carry exactly
// the thirteen trained ratio names; any other shape fails with a schema
// error. An unknown sector one-hot encodes to all zeros, never an error.
func (c *BucketClassifier) Predict(sector string, ratios features.Vector) (Bucket, float64, error) {
	aligned, err := ratios.Align(c.pre.RatioNames)
	if err != nil {
		return "", 0, err
	}
	row, err := c.pre.Transform(sector, aligned)
	if err != nil {
		return "", 0, err
	}
	class, prob, err := c.forest.Predict(row)
	if err != nil {
		return "", 0, err
	}
	label, err := c.labels.Decode(class)
	if err != nil {
		return "", 0, err
	}
	return Bucket(label), prob, nil
}

// FeatureImportance pairs a post-transform column with its global split
// importance.
type FeatureImportance struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// FeatureImportances returns global importances over the post-transform
// columns, highest first. These are model-level, not per-request.
func (c *BucketClassifier) FeatureImportances() []FeatureImportance {
	names := c.pre.FeatureNames()
	raw := c.forest.FeatureImportances()
	out := make([]FeatureImportance, len(names))
	for i, name := range names {
		out[i] = FeatureImportance{Name: name, Importance: raw[i]}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	return out
}
