package calc

import "equiintel/pkg/core/extract"

// Metrics is every intermediate figure of one evaluation.
type Metrics struct {
	ROIC              Optional        `json:"roic"`
	InvestmentSplit   InvestmentSplit `json:"investment_split"`
	Growth            Optional        `json:"revenue_cagr"`
	Valuation         Valuation       `json:"valuation"`
	OperatingLeverage Optional        `json:"operating_leverage"`
	StressTest        []Scenario      `json:"stress_test"`
	StockReturn       Optional        `json:"stock_return"`
	Benchmark         Optional        `json:"benchmark"`
	Verdict           Verdict         `json:"verdict"`
}

// AssessGrowth is the CAGR of Total Revenue.
func AssessGrowth(ds *extract.Dataset) Optional {
	return CAGR(ds.Series(extract.TotalRevenue))
}

// Evaluate computes all metrics and the verdict over a dataset.
func Evaluate(ds *extract.Dataset, stockReturn, benchmark Optional) Metrics {
	ni := ds.Series(extract.NetIncome)
	ta := ds.Series(extract.TotalAssets)
	cl := ds.Series(extract.CurrentLiabilities)

	m := Metrics{
		ROIC:            ROIC(ni, ta, cl),
		InvestmentSplit: SplitInvestments(ni, ds.Series(extract.CapitalExpenditures)),
		Growth:          AssessGrowth(ds),
		Valuation: DefineValuation(
			ds.Series(extract.MarketCap),
			ds.Series(extract.BookValue),
			ds.Series(extract.SharesOutstanding),
		),
		OperatingLeverage: OperatingLeverage(
			ds.Series(extract.OperatingExpenses),
			ds.Series(extract.CostOfRevenue),
		),
		StressTest:  StressTest(ni, ta, cl),
		StockReturn: stockReturn,
		Benchmark:   benchmark,
	}
	m.Verdict = PronounceVerdict(Inputs{
		ROIC:           m.ROIC,
		Growth:         m.Growth,
		Leverage:       m.OperatingLeverage,
		MarketCap:      m.Valuation.MarketCap,
		IntrinsicValue: m.Valuation.IntrinsicValue,
		StockReturn:    stockReturn,
		Benchmark:      benchmark,
	})
	return m
}
