package features

// ClassifierSchema is the thirteen-ratio schema the bucket classifier is
// trained with. The categorical sector label travels alongside the ratio
// vector and is one-hot encoded by the preprocessing transform.
var ClassifierSchema = []string{
	"current_ratio",
	"long_term_debt_to_capital",
	"debt_to_equity",
	"gross_margin",
	"operating_margin",
	"ebit_margin",
	"pretax_margin",
	"net_profit_margin",
	"asset_turnover",
	"roe",
	"roa",
	"operating_cf_per_share",
	"free_cf_per_share",
}

// Fundamentals holds the balance sheet, income statement and cash flow
// line items the classifier ratios are computed from.
type Fundamentals struct {
	Ticker string
	Sector string

	CurrentAssets      float64
	CurrentLiabilities float64
	LongTermDebt       float64
	TotalEquity        float64
	TotalLiabilities   float64
	TotalAssets        float64
	SharesOutstanding  float64

	Revenue         float64
	GrossProfit     float64
	EBIT            float64
	OperatingIncome float64
	PretaxIncome    float64
	NetIncome       float64

	OperatingCashFlow   float64
	CapitalExpenditures float64 // reported negative, per statement convention
}

// BuildRatios computes the classifier ratio vector with the same
// zero-guard policy as the scoring features: a zero denominator imputes 0.
func (b *Builder) BuildRatios(f Fundamentals) Vector {
	freeCashFlow := f.OperatingCashFlow + f.CapitalExpenditures

	values := []float64{
		b.ratio(f.Ticker, "current_ratio", f.CurrentAssets, f.CurrentLiabilities, 0),
		b.ratio(f.Ticker, "long_term_debt_to_capital", f.LongTermDebt, f.LongTermDebt+f.TotalEquity, 0),
		b.ratio(f.Ticker, "debt_to_equity", f.TotalLiabilities, f.TotalEquity, 0),
		b.ratio(f.Ticker, "gross_margin", f.GrossProfit, f.Revenue, 0),
		b.ratio(f.Ticker, "operating_margin", f.OperatingIncome, f.Revenue, 0),
		b.ratio(f.Ticker, "ebit_margin", f.EBIT, f.Revenue, 0),
		b.ratio(f.Ticker, "pretax_margin", f.PretaxIncome, f.Revenue, 0),
		b.ratio(f.Ticker, "net_profit_margin", f.NetIncome, f.Revenue, 0),
		b.ratio(f.Ticker, "asset_turnover", f.Revenue, f.TotalAssets, 0),
		b.ratio(f.Ticker, "roe", f.NetIncome, f.TotalEquity, 0),
		b.ratio(f.Ticker, "roa", f.NetIncome, f.TotalAssets, 0),
		b.ratio(f.Ticker, "operating_cf_per_share", f.OperatingCashFlow, f.SharesOutstanding, 0),
		b.ratio(f.Ticker, "free_cf_per_share", freeCashFlow, f.SharesOutstanding, 0),
	}

	v, _ := NewVector(ClassifierSchema, values)
	return v
}
