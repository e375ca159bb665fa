package train

import (
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/credtech/credintel/internal/features"
	"github.com/credtech/credintel/internal/model"
	"github.com/credtech/credintel/internal/rating"
)

// Config tunes the training job.
type Config struct {
	Forest       model.ForestConfig `yaml:"forest"`
	TestFraction float64            `yaml:"test_fraction"`
	Seed         int64              `yaml:"seed"`
}

// DefaultConfig mirrors the job the shipped artifacts were built with.
func DefaultConfig() Config {
	return Config{
		Forest:       model.DefaultForestConfig(),
		TestFraction: 0.2,
		Seed:         42,
	}
}

// Report summarizes a training run.
type Report struct {
	TrainSize      int                        `json:"train_size"`
	TestSize       int                        `json:"test_size"`
	Accuracy       float64                    `json:"accuracy"`
	BucketCounts   map[rating.Bucket]int      `json:"bucket_counts"`
	TopImportances []rating.FeatureImportance `json:"top_importances"`
}

// Trainer fits the bucket classifier and builds the distribution table.
type Trainer struct {
	cfg Config
	log zerolog.Logger
}

// NewTrainer creates a trainer.
func NewTrainer(cfg Config, log zerolog.Logger) *Trainer {
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.2
	}
	return &Trainer{cfg: cfg, log: log}
}

// Run trains on the dataset and writes all four artifacts into dir: the
// forest, the preprocessing transform, the label encoder, and the bucket
// distribution table.
func (t *Trainer) Run(examples []Example, dir string) (*Report, error) {
	trainSet, testSet := stratifiedSplit(examples, t.cfg.TestFraction, t.cfg.Seed)
	if len(trainSet) == 0 || len(testSet) == 0 {
		return nil, fmt.Errorf("train: %d examples is too few for a stratified split", len(examples))
	}

	// The distribution table comes from the training partition only, so
	// hold-out accuracy is honest about the whole two-stage scheme.
	fineLabels := make([]string, len(trainSet))
	bucketCounts := make(map[rating.Bucket]int)
	for i, ex := range trainSet {
		fineLabels[i] = ex.Rating
		bucketCounts[rating.Collapse(ex.Rating)]++
	}
	table := rating.BuildDistributionTable(fineLabels)
	if err := table.Validate(rating.Buckets); err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	forest, pre, labels, err := t.fit(trainSet)
	if err != nil {
		return nil, err
	}
	classifier, err := rating.NewBucketClassifier(forest, pre, labels)
	if err != nil {
		return nil, err
	}

	accuracy := evaluate(classifier, testSet)
	t.log.Info().Int("train", len(trainSet)).Int("test", len(testSet)).
		Float64("accuracy", accuracy).Msg("training complete")

	if err := model.SaveJSON(dir, model.ForestFile, forest); err != nil {
		return nil, err
	}
	if err := model.SaveJSON(dir, model.PreprocessorFile, pre); err != nil {
		return nil, err
	}
	if err := model.SaveJSON(dir, model.LabelsFile, labels); err != nil {
		return nil, err
	}
	if err := rating.SaveDistributionTable(table, filepath.Join(dir, rating.DistributionFile)); err != nil {
		return nil, err
	}

	importances := classifier.FeatureImportances()
	if len(importances) > 3 {
		importances = importances[:3]
	}
	return &Report{
		TrainSize:      len(trainSet),
		TestSize:       len(testSet),
		Accuracy:       accuracy,
		BucketCounts:   bucketCounts,
		TopImportances: importances,
	}, nil
}

// fit trains the forest on the encoded training partition.
func (t *Trainer) fit(trainSet []Example) (*model.Forest, *model.Preprocessor, *model.LabelEncoder, error) {
	pre, labels, x, y := t.prepare(trainSet)
	weights := model.BalancedWeights(y, len(labels.Classes))
	forest, err := model.TrainForest(x, y, weights, len(labels.Classes), t.cfg.Forest)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("train: %w", err)
	}
	return forest, pre, labels, nil
}

func (t *Trainer) prepare(trainSet []Example) (*model.Preprocessor, *model.LabelEncoder, [][]float64, []int) {
	sectors := make([]string, len(trainSet))
	buckets := make([]string, len(trainSet))
	for i, ex := range trainSet {
		sectors[i] = ex.Sector
		buckets[i] = string(rating.Collapse(ex.Rating))
	}
	pre := model.FitPreprocessor(sectors, features.ClassifierSchema)
	labels := model.FitLabels(buckets)

	x := make([][]float64, len(trainSet))
	y := make([]int, len(trainSet))
	for i, ex := range trainSet {
		aligned, _ := ex.Ratios.Align(features.ClassifierSchema)
		row, _ := pre.Transform(ex.Sector, aligned)
		x[i] = row
		y[i], _ = labels.Encode(buckets[i])
	}
	return pre, labels, x, y
}

// stratifiedSplit partitions examples keyed on the collapsed bucket so
// bucket class balance survives the split despite fine-label imbalance.
func stratifiedSplit(examples []Example, testFraction float64, seed int64) (trainSet, testSet []Example) {
	groups := make(map[rating.Bucket][]int)
	for i, ex := range examples {
		b := rating.Collapse(ex.Rating)
		groups[b] = append(groups[b], i)
	}

	rng := rand.New(rand.NewSource(seed))
	for _, b := range rating.Buckets {
		idx := groups[b]
		rng.Shuffle(len(idx), func(a, c int) { idx[a], idx[c] = idx[c], idx[a] })
		nTest := int(float64(len(idx)) * testFraction)
		for i, j := range idx {
			if i < nTest {
				testSet = append(testSet, examples[j])
			} else {
				trainSet = append(trainSet, examples[j])
			}
		}
	}
	return trainSet, testSet
}

func evaluate(c *rating.BucketClassifier, testSet []Example) float64 {
	if len(testSet) == 0 {
		return 0
	}
	correct := 0
	for _, ex := range testSet {
		predicted, _, err := c.Predict(ex.Sector, ex.Ratios)
		if err == nil && predicted == rating.Collapse(ex.Rating) {
			correct++
		}
	}
	return float64(correct) / float64(len(testSet))
}
