// Package explain turns a credit score, the model's feature importances
// and the raw feature values into a structured, human-readable rationale.
// No learned state: everything here is a pure function of its inputs,
// recomputed per request.
package explain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/credtech/credintel/internal/features"
)

// Trends carries the short- and long-term trend indicators shown next to
// the score. Callers that compute real trends pass them in; the default
// pair is a fixed placeholder, not a computed trend.
type Trends struct {
	ShortTerm string `json:"short_term"`
	LongTerm  string `json:"long_term"`
}

// DefaultTrends is used when the caller supplies none.
var DefaultTrends = Trends{ShortTerm: "Stable", LongTerm: "Improving"}

// FeatureWeight pairs a feature with its model importance and raw value.
type FeatureWeight struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
	Value      float64 `json:"value"`
}

// Explanation is the derived, stateless rationale for one score.
type Explanation struct {
	Score     float64         `json:"score"`
	Breakdown []FeatureWeight `json:"breakdown"` // importance-ordered
	Trends    Trends          `json:"trend_indicators"`
	Summary   string          `json:"summary"`
}

// Explain builds the rationale. The top three features by importance are
// phrased into prose clauses when they carry a recognized threshold rule;
// other features still appear in the breakdown but generate no clause.
func Explain(score float64, importances map[string]float64, values features.Vector, trends *Trends) Explanation {
	breakdown := make([]FeatureWeight, 0, len(importances))
	for name, imp := range importances {
		val, _ := values.Get(name)
		breakdown = append(breakdown, FeatureWeight{Name: name, Importance: imp, Value: val})
	}
	sort.SliceStable(breakdown, func(a, b int) bool {
		if breakdown[a].Importance != breakdown[b].Importance {
			return breakdown[a].Importance > breakdown[b].Importance
		}
		return breakdown[a].Name < breakdown[b].Name
	})

	var clauses []string
	top := breakdown
	if len(top) > 3 {
		top = top[:3]
	}
	for _, fw := range top {
		if clause := phrase(fw.Name, fw.Value); clause != "" {
			clauses = append(clauses, clause)
		}
	}

	summary := fmt.Sprintf("Credit score of %.2f", score)
	if len(clauses) > 0 {
		summary = fmt.Sprintf("Credit score of %.2f is influenced by: %s", score, strings.Join(clauses, ", "))
	}

	t := DefaultTrends
	if trends != nil {
		t = *trends
	}

	return Explanation{
		Score:     score,
		Breakdown: breakdown,
		Trends:    t,
		Summary:   summary,
	}
}

// phrase applies the hand-written threshold rules for the recognized
// feature names. Unrecognized features return an empty clause.
func phrase(name string, val float64) string {
	switch name {
	case "debt_to_equity":
		if val > 1 {
			return fmt.Sprintf("High debt-to-equity (%.2f) increasing risk", val)
		}
		return fmt.Sprintf("Low debt-to-equity (%.2f) supporting stability", val)
	case "current_ratio":
		if val > 1.5 {
			return fmt.Sprintf("Strong current ratio (%.2f) indicating liquidity", val)
		}
		return fmt.Sprintf("Weak current ratio (%.2f) raising concerns", val)
	case "profit_margin":
		if val > 0 {
			return fmt.Sprintf("Positive profit margin (%.2f) boosting score", val)
		}
		return fmt.Sprintf("Negative profit margin (%.2f) lowering score", val)
	}
	return ""
}
