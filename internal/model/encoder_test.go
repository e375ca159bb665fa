package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocessor_TransformOneHot(t *testing.T) {
	p := FitPreprocessor(
		[]string{"Tech", "Energy", "Tech", "Utilities"},
		[]string{"roa", "roe"},
	)
	// Categories are sorted for a stable column order.
	assert.Equal(t, []string{"Energy", "Tech", "Utilities"}, p.Sectors)
	assert.Equal(t, 5, p.Width())
	assert.Equal(t, []string{"sector=Energy", "sector=Tech", "sector=Utilities", "roa", "roe"}, p.FeatureNames())

	row, err := p.Transform("Tech", []float64{0.1, 0.2})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0, 0.1, 0.2}, row)
}

func TestPreprocessor_UnknownSectorEncodesAllZero(t *testing.T) {
	p := FitPreprocessor([]string{"Tech"}, []string{"roa"})

	row, err := p.Transform("Healthcare", []float64{0.3})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.3}, row)
}

func TestPreprocessor_RatioWidthMismatch(t *testing.T) {
	p := FitPreprocessor([]string{"Tech"}, []string{"roa", "roe"})

	_, err := p.Transform("Tech", []float64{0.3})
	assert.Error(t, err)
}

func TestLabelEncoder_RoundTrip(t *testing.T) {
	e := FitLabels([]string{"Medium", "High", "Low", "High"})
	assert.Equal(t, []string{"High", "Low", "Medium"}, e.Classes)

	idx, err := e.Encode("Low")
	require.NoError(t, err)
	label, err := e.Decode(idx)
	require.NoError(t, err)
	assert.Equal(t, "Low", label)

	_, err = e.Encode("Unknown")
	assert.Error(t, err)
	_, err = e.Decode(3)
	assert.Error(t, err)
}

func TestArtifacts_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	x, y := separableSet()
	w := BalancedWeights(y, 2)
	forest, err := TrainForest(x, y, w, 2, ForestConfig{Estimators: 5, MinLeafSize: 1, Seed: 7})
	require.NoError(t, err)

	pre := FitPreprocessor([]string{"Tech"}, []string{"a", "b"})
	labels := FitLabels([]string{"High", "Low"})

	require.NoError(t, SaveJSON(dir, ForestFile, forest))
	require.NoError(t, SaveJSON(dir, PreprocessorFile, pre))
	require.NoError(t, SaveJSON(dir, LabelsFile, labels))

	loadedForest, err := LoadForest(dir)
	require.NoError(t, err)
	assert.Equal(t, forest.NFeatures, loadedForest.NFeatures)
	assert.Len(t, loadedForest.Trees, 5)

	// Loaded forest predicts identically to the fitted one.
	want, err := forest.PredictProba([]float64{0.5, 3})
	require.NoError(t, err)
	got, err := loadedForest.PredictProba([]float64{0.5, 3})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	loadedPre, err := LoadPreprocessor(dir)
	require.NoError(t, err)
	assert.Equal(t, pre.Sectors, loadedPre.Sectors)

	loadedLabels, err := LoadLabelEncoder(dir)
	require.NoError(t, err)
	assert.Equal(t, labels.Classes, loadedLabels.Classes)
}

func TestLoadForest_MissingFile(t *testing.T) {
	_, err := LoadForest(t.TempDir())
	assert.Error(t, err)
}
