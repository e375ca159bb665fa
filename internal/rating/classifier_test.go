package rating

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credtech/credintel/internal/features"
	"github.com/credtech/credintel/internal/model"
)

// fitTestClassifier trains a small forest where low leverage means High
// and high leverage means Low, over the full thirteen-ratio schema.
func fitTestClassifier(t *testing.T) *BucketClassifier {
	t.Helper()

	sectors := []string{"Tech", "Tech", "Energy", "Energy", "Tech", "Energy"}
	buckets := []string{"High", "High", "High", "Low", "Low", "Low"}
	leverage := []float64{0.2, 0.3, 0.25, 2.5, 3.0, 2.8}

	pre := model.FitPreprocessor(sectors, features.ClassifierSchema)
	labels := model.FitLabels(buckets)

	x := make([][]float64, len(sectors))
	y := make([]int, len(sectors))
	for i := range sectors {
		ratios := make([]float64, len(features.ClassifierSchema))
		for j := range ratios {
			ratios[j] = 0.1
		}
		ratios[2] = leverage[i] // debt_to_equity column
		row, err := pre.Transform(sectors[i], ratios)
		require.NoError(t, err)
		x[i] = row
		y[i], err = labels.Encode(buckets[i])
		require.NoError(t, err)
	}

	w := model.BalancedWeights(y, len(labels.Classes))
	forest, err := model.TrainForest(x, y, w, len(labels.Classes),
		model.ForestConfig{Estimators: 20, MinLeafSize: 1, Seed: 42})
	require.NoError(t, err)

	c, err := NewBucketClassifier(forest, pre, labels)
	require.NoError(t, err)
	return c
}

func ratioVector(t *testing.T, debtToEquity float64) features.Vector {
	t.Helper()
	values := make([]float64, len(features.ClassifierSchema))
	for i := range values {
		values[i] = 0.1
	}
	values[2] = debtToEquity
	v, err := features.NewVector(features.ClassifierSchema, values)
	require.NoError(t, err)
	return v
}

func TestBucketClassifier_Predict(t *testing.T) {
	c := fitTestClassifier(t)

	bucket, prob, err := c.Predict("Tech", ratioVector(t, 0.2))
	require.NoError(t, err)
	assert.Equal(t, BucketHigh, bucket)
	assert.Greater(t, prob, 0.5)

	bucket, _, err = c.Predict("Energy", ratioVector(t, 2.9))
	require.NoError(t, err)
	assert.Equal(t, BucketLow, bucket)
}

func TestBucketClassifier_UnknownSectorStillPredicts(t *testing.T) {
	c := fitTestClassifier(t)

	bucket, _, err := c.Predict("Healthcare", ratioVector(t, 0.2))
	require.NoError(t, err)
	assert.Equal(t, BucketHigh, bucket)
}

func TestBucketClassifier_SchemaMismatch(t *testing.T) {
	c := fitTestClassifier(t)

	v, err := features.NewVector([]string{"roa"}, []float64{0.1})
	require.NoError(t, err)

	_, _, err = c.Predict("Tech", v)
	var schemaErr *features.SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestBucketClassifier_ComponentWidthValidation(t *testing.T) {
	c := fitTestClassifier(t)

	narrow := model.FitPreprocessor([]string{"Tech"}, []string{"roa"})
	_, err := NewBucketClassifier(c.forest, narrow, c.labels)
	assert.Error(t, err)

	threeLabels := model.FitLabels([]string{"High", "Medium", "Low"})
	_, err = NewBucketClassifier(c.forest, c.pre, threeLabels)
	assert.Error(t, err)
}

func TestBucketClassifier_FeatureImportancesSorted(t *testing.T) {
	c := fitTestClassifier(t)

	imps := c.FeatureImportances()
	require.Len(t, imps, c.pre.Width())
	for i := 1; i < len(imps); i++ {
		assert.GreaterOrEqual(t, imps[i-1].Importance, imps[i].Importance)
	}
	// The leverage column carries the signal.
	assert.Equal(t, "debt_to_equity", imps[0].Name)
}

func TestLoadBucketClassifier_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := fitTestClassifier(t)

	require.NoError(t, model.SaveJSON(dir, model.ForestFile, c.forest))
	require.NoError(t, model.SaveJSON(dir, model.PreprocessorFile, c.pre))
	require.NoError(t, model.SaveJSON(dir, model.LabelsFile, c.labels))

	loaded, err := LoadBucketClassifier(dir)
	require.NoError(t, err)

	want, wantProb, err := c.Predict("Tech", ratioVector(t, 0.2))
	require.NoError(t, err)
	got, gotProb, err := loaded.Predict("Tech", ratioVector(t, 0.2))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, wantProb, gotProb)
}
