package rating

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// DistributionFile is the artifact name for the bucket to fine-grained
// rating distribution table.
const DistributionFile = "bucket_distribution.json"

// DistributionTable maps each bucket to the empirical probability of each
// fine-grained rating within it, learned at training time and consumed
// read-only at inference.
type DistributionTable map[Bucket]map[string]float64

// MissingDistributionError reports a classifier bucket that has no entry
// in the table. This is a training/inference skew and must surface, never
// be silently defaulted.
type MissingDistributionError struct {
	Bucket Bucket
}

func (e *MissingDistributionError) Error() string {
	return fmt.Sprintf("no distribution for bucket %q", e.Bucket)
}

// BuildDistributionTable computes the per-bucket empirical frequency of
// fine-grained labels and normalizes each bucket to sum to 1.
func BuildDistributionTable(fineLabels []string) DistributionTable {
	counts := make(map[Bucket]map[string]float64)
	totals := make(map[Bucket]float64)
	for _, fine := range fineLabels {
		b := Collapse(fine)
		if counts[b] == nil {
			counts[b] = make(map[string]float64)
		}
		counts[b][fine]++
		totals[b]++
	}
	table := make(DistributionTable, len(counts))
	for b, dist := range counts {
		norm := make(map[string]float64, len(dist))
		for fine, c := range dist {
			norm[fine] = c / totals[b]
		}
		table[b] = norm
	}
	return table
}

// Validate checks that every given bucket has a non-empty entry whose
// probabilities sum to 1 within tolerance.
func (t DistributionTable) Validate(buckets []Bucket) error {
	for _, b := range buckets {
		dist, ok := t[b]
		if !ok || len(dist) == 0 {
			return &MissingDistributionError{Bucket: b}
		}
		sum := 0.0
		for _, p := range dist {
			sum += p
		}
		if math.Abs(sum-1) > 1e-6 {
			return fmt.Errorf("distribution for bucket %q sums to %.6f, want 1", b, sum)
		}
	}
	return nil
}

// SaveDistributionTable persists the table as a JSON artifact.
func SaveDistributionTable(t DistributionTable, path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("distribution table: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("distribution table: write %s: %w", path, err)
	}
	return nil
}

// LoadDistributionTable reads a JSON table from disk.
func LoadDistributionTable(path string) (DistributionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("distribution table: read %s: %w", path, err)
	}
	var t DistributionTable
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("distribution table: parse %s: %w", path, err)
	}
	return t, nil
}
