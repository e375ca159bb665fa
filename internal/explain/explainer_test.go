package explain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credtech/credintel/internal/features"
)

func vector(t *testing.T, names []string, values []float64) features.Vector {
	t.Helper()
	v, err := features.NewVector(names, values)
	require.NoError(t, err)
	return v
}

func TestExplain_BreakdownOrderedByImportance(t *testing.T) {
	values := vector(t,
		[]string{"debt_to_equity", "current_ratio", "profit_margin", "roa"},
		[]float64{1.8, 2.1, 0.12, 0.05},
	)
	importances := map[string]float64{
		"debt_to_equity": 0.4,
		"current_ratio":  0.3,
		"profit_margin":  0.2,
		"roa":            0.1,
	}

	exp := Explain(72.3, importances, values, nil)

	require.Len(t, exp.Breakdown, 4)
	assert.Equal(t, "debt_to_equity", exp.Breakdown[0].Name)
	assert.Equal(t, "current_ratio", exp.Breakdown[1].Name)
	assert.Equal(t, "profit_margin", exp.Breakdown[2].Name)
	assert.Equal(t, "roa", exp.Breakdown[3].Name)
	assert.Equal(t, 1.8, exp.Breakdown[0].Value)
}

func TestExplain_SummaryClauses(t *testing.T) {
	values := vector(t,
		[]string{"debt_to_equity", "current_ratio", "profit_margin"},
		[]float64{1.8, 2.1, 0.12},
	)
	importances := map[string]float64{
		"debt_to_equity": 0.5,
		"current_ratio":  0.3,
		"profit_margin":  0.2,
	}

	exp := Explain(72.3, importances, values, nil)

	assert.True(t, strings.HasPrefix(exp.Summary, "Credit score of 72.30 is influenced by: "), exp.Summary)
	assert.Contains(t, exp.Summary, "High debt-to-equity (1.80) increasing risk")
	assert.Contains(t, exp.Summary, "Strong current ratio (2.10) indicating liquidity")
	assert.Contains(t, exp.Summary, "Positive profit margin (0.12) boosting score")
}

func TestExplain_NegativePhrasings(t *testing.T) {
	values := vector(t,
		[]string{"debt_to_equity", "current_ratio", "profit_margin"},
		[]float64{0.4, 0.9, -0.03},
	)
	importances := map[string]float64{
		"debt_to_equity": 0.5,
		"current_ratio":  0.3,
		"profit_margin":  0.2,
	}

	exp := Explain(40, importances, values, nil)

	assert.Contains(t, exp.Summary, "Low debt-to-equity (0.40) supporting stability")
	assert.Contains(t, exp.Summary, "Weak current ratio (0.90) raising concerns")
	assert.Contains(t, exp.Summary, "Negative profit margin (-0.03) lowering score")
}

func TestExplain_OnlyTopThreeGenerateClauses(t *testing.T) {
	// profit_margin ranks fourth and must not appear as a clause.
	importances := map[string]float64{
		"debt_to_equity":   0.4,
		"current_ratio":    0.3,
		"price_volatility": 0.2,
		"profit_margin":    0.1,
	}
	values := vector(t,
		[]string{"debt_to_equity", "current_ratio", "price_volatility", "profit_margin"},
		[]float64{1.8, 2.1, 0.02, 0.12},
	)

	exp := Explain(65, importances, values, nil)
	assert.NotContains(t, exp.Summary, "profit margin")
}

func TestExplain_NoRecognizedFeatures(t *testing.T) {
	values := vector(t, []string{"macro_interest_rate"}, []float64{0.05})
	importances := map[string]float64{"macro_interest_rate": 1.0}

	exp := Explain(55.5, importances, values, nil)
	assert.Equal(t, "Credit score of 55.50", exp.Summary)
}

func TestExplain_Trends(t *testing.T) {
	values := vector(t, []string{"roa"}, []float64{0.05})

	exp := Explain(50, map[string]float64{"roa": 1}, values, nil)
	assert.Equal(t, DefaultTrends, exp.Trends)

	custom := Trends{ShortTerm: "Declining", LongTerm: "Stable"}
	exp = Explain(50, map[string]float64{"roa": 1}, values, &custom)
	assert.Equal(t, custom, exp.Trends)
}

func TestExplain_TiesBreakByName(t *testing.T) {
	values := vector(t, []string{"roa", "current_ratio"}, []float64{0.05, 2.0})
	importances := map[string]float64{"roa": 0.5, "current_ratio": 0.5}

	exp := Explain(60, importances, values, nil)
	assert.Equal(t, "current_ratio", exp.Breakdown[0].Name)
	assert.Equal(t, "roa", exp.Breakdown[1].Name)
}
