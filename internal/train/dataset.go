// Package train implements the offline training job for the bucket
// classifier and its companion artifacts. It runs as a separate process
// from inference; the serialized artifact files are the only coupling.
package train

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/credtech/credintel/internal/features"
)

// Example is one historical observation: a sector, the thirteen ratios,
// and the fine-grained agency rating.
type Example struct {
	Sector string
	Ratios features.Vector
	Rating string
}

// LoadDataset reads the historical ratings CSV. The header must name a
// sector column, a rating column, and every classifier ratio column;
// unparseable numerics impute to 0 under the zero-guard policy.
func LoadDataset(path string) ([]Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDataset(f)
}

// ReadDataset parses dataset CSV from a reader.
func ReadDataset(r io.Reader) ([]Example, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range append([]string{"sector", "rating"}, features.ClassifierSchema...) {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("dataset: missing column %q", required)
		}
	}

	var examples []Example
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: line %d: %w", line, err)
		}

		values := make([]float64, len(features.ClassifierSchema))
		for i, name := range features.ClassifierSchema {
			if v, err := strconv.ParseFloat(record[col[name]], 64); err == nil {
				values[i] = v
			}
		}
		vec, err := features.NewVector(features.ClassifierSchema, values)
		if err != nil {
			return nil, fmt.Errorf("dataset: line %d: %w", line, err)
		}
		examples = append(examples, Example{
			Sector: record[col["sector"]],
			Ratios: vec,
			Rating: record[col["rating"]],
		})
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("dataset: no examples")
	}
	return examples, nil
}
