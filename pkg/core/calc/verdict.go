package calc

// Verdict is the binary recommendation, plus the case where no benchmark
// was available to compare against.
type Verdict string

const (
	Invest      Verdict = "Invest"
	DoNotInvest Verdict = "Do Not Invest"
	NoVerdict   Verdict = "Unable to provide verdict"
)

// Fixed cutoffs.
const (
	RoicHurdle     = 0.10
	GrowthHurdle   = 0.05
	LeverageHurdle = 0.50
)

// Inputs is everything PronounceVerdict looks at.
type Inputs struct {
	ROIC           Optional
	Growth         Optional
	Leverage       Optional
	MarketCap      Optional
	IntrinsicValue Optional
	StockReturn    Optional
	Benchmark      Optional
}

// PronounceVerdict applies the conjunctive rule. A missing benchmark means
// there is nothing to compare returns with; any other missing input is a
// failed condition.
func PronounceVerdict(in Inputs) Verdict {
	bench, ok := in.Benchmark.Get()
	if !ok {
		return NoVerdict
	}

	roic, ok1 := in.ROIC.Get()
	growth, ok2 := in.Growth.Get()
	lev, ok3 := in.Leverage.Get()
	mc, ok4 := in.MarketCap.Get()
	iv, ok5 := in.IntrinsicValue.Get()
	ret, ok6 := in.StockReturn.Get()
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		return DoNotInvest
	}

	if roic > RoicHurdle &&
		growth > GrowthHurdle &&
		lev > LeverageHurdle &&
		mc < iv &&
		ret > bench {
		return Invest
	}
	return DoNotInvest
}
