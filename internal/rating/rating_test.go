package rating

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollapse(t *testing.T) {
	cases := map[string]Bucket{
		"AAA":  BucketHigh,
		"AA-":  BucketHigh,
		"A+":   BucketHigh,
		"A-":   BucketHigh,
		"BBB+": BucketMedium,
		"BBB":  BucketMedium,
		"BBB-": BucketMedium,
		"BB+":  BucketLow,
		"B":    BucketLow,
		"CCC":  BucketLow,
		"D":    BucketLow,
		"":     BucketLow,
		"ZZZ":  BucketLow,
	}
	for fine, want := range cases {
		assert.Equal(t, want, Collapse(fine), fine)
	}
}

func TestBuildDistributionTable(t *testing.T) {
	table := BuildDistributionTable([]string{"AAA", "AAA", "AA", "BBB", "BB", "BB", "B", "D"})

	require.NoError(t, table.Validate(Buckets))
	assert.InDelta(t, 2.0/3.0, table[BucketHigh]["AAA"], 1e-9)
	assert.InDelta(t, 1.0/3.0, table[BucketHigh]["AA"], 1e-9)
	assert.InDelta(t, 1.0, table[BucketMedium]["BBB"], 1e-9)
	assert.InDelta(t, 0.5, table[BucketLow]["BB"], 1e-9)
}

func TestValidate_MissingBucket(t *testing.T) {
	table := BuildDistributionTable([]string{"AAA", "BBB"}) // no Low labels

	err := table.Validate(Buckets)
	var missing *MissingDistributionError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, BucketLow, missing.Bucket)
}

func TestValidate_BadSum(t *testing.T) {
	table := DistributionTable{
		BucketHigh: {"AAA": 0.5, "AA": 0.3},
	}
	assert.Error(t, table.Validate([]Bucket{BucketHigh}))
}

func TestExpander_ScalesByBucketProbability(t *testing.T) {
	table := DistributionTable{
		BucketHigh: {"AAA": 0.6, "AA": 0.4},
	}
	e := NewExpander(table)

	best, expanded, err := e.Expand(BucketHigh, 0.9)
	require.NoError(t, err)
	assert.Equal(t, "AAA", best)
	assert.InDelta(t, 0.54, expanded["AAA"], 1e-9)
	assert.InDelta(t, 0.36, expanded["AA"], 1e-9)
}

func TestExpander_TieBreaksTowardHigherRating(t *testing.T) {
	table := DistributionTable{
		BucketMedium: {"BBB+": 0.5, "BBB-": 0.5},
	}
	e := NewExpander(table)

	best, _, err := e.Expand(BucketMedium, 0.8)
	require.NoError(t, err)
	assert.Equal(t, "BBB+", best)
}

func TestExpander_TieBreaksUnknownSymbolsLexically(t *testing.T) {
	// Symbols outside the standard scale share a rank, so equal scores
	// must still resolve the same way on every run.
	table := DistributionTable{
		BucketLow: {"SD": 0.5, "NR": 0.5},
	}
	e := NewExpander(table)

	for i := 0; i < 10; i++ {
		best, _, err := e.Expand(BucketLow, 0.6)
		require.NoError(t, err)
		assert.Equal(t, "NR", best)
	}
}

func TestExpander_MissingBucket(t *testing.T) {
	e := NewExpander(DistributionTable{})

	_, _, err := e.Expand(BucketLow, 0.7)
	var missing *MissingDistributionError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, BucketLow, missing.Bucket)
}

func TestDistributionTable_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/" + DistributionFile

	table := BuildDistributionTable([]string{"AAA", "BBB", "BB"})
	require.NoError(t, SaveDistributionTable(table, path))

	loaded, err := LoadDistributionTable(path)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, loaded[BucketHigh]["AAA"], 1e-9)
	assert.InDelta(t, 1.0, loaded[BucketLow]["BB"], 1e-9)
}
