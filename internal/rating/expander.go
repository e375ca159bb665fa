package rating

// Expander turns a coarse bucket prediction into the most probable
// fine-grained rating using the learned conditional distribution.
type Expander struct {
	table DistributionTable
}

// NewExpander wraps a loaded distribution table.
func NewExpander(table DistributionTable) *Expander {
	return &Expander{table: table}
}

// Expand multiplies each fine-grained probability within the bucket's
// distribution by the bucket-level probability and returns the symbol
// with the maximum expanded score, plus the full expanded map. Equal
// scores break toward the higher-priority symbol in the fixed global
// rating order.
func (e *Expander) Expand(bucket Bucket, bucketProb float64) (string, map[string]float64, error) {
	dist, ok := e.table[bucket]
	if !ok || len(dist) == 0 {
		return "", nil, &MissingDistributionError{Bucket: bucket}
	}

	expanded := make(map[string]float64, len(dist))
	best := ""
	bestScore := -1.0
	for fine, p := range dist {
		score := p * bucketProb
		expanded[fine] = score
		switch {
		case score > bestScore:
			best, bestScore = fine, score
		case score == bestScore && ratingLess(fine, best):
			best = fine
		}
	}
	return best, expanded, nil
}
