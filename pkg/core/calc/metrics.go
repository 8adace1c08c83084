package calc

import (
	"math"
	"sort"

	"equiintel/pkg/core/align"
)

// =============================================================================
// MOAT, GROWTH, VALUATION AND LEVERAGE INDICATORS
// Scalar inputs are the latest observation of a series.
// =============================================================================

// latest returns the most recent observation of a series.
func latest(s align.TimeSeries) Optional {
	dv, ok := s.Latest()
	if !ok {
		return Absent()
	}
	return Present(dv.Value)
}

// safeDiv is Absent for a zero or missing operand.
func safeDiv(num, den Optional) Optional {
	n, ok1 := num.Get()
	d, ok2 := den.Get()
	if !ok1 || !ok2 || d == 0 {
		return Absent()
	}
	return Present(n / d)
}

// ROIC = Net Income / (Total Assets - Current Liabilities).
func ROIC(netIncome, totalAssets, currentLiabilities align.TimeSeries) Optional {
	ta, ok1 := latest(totalAssets).Get()
	cl, ok2 := latest(currentLiabilities).Get()
	if !ok1 || !ok2 {
		return Absent()
	}
	return safeDiv(latest(netIncome), Present(ta-cl))
}

// InvestmentSplit is the mean capital expenditure in periods where net
// income grew faster than the median change (High) versus the rest (Low).
type InvestmentSplit struct {
	High Optional `json:"high"`
	Low  Optional `json:"low"`
}

// SplitInvestments partitions capex by net-income performance. Both series
// are paired by position and need at least two observations. The first
// period has no change and counts as low performance, as does a change from
// a zero base.
func SplitInvestments(netIncome, capex align.TimeSeries) InvestmentSplit {
	ni := netIncome.Values()
	cx := capex.Values()
	n := len(ni)
	if len(cx) < n {
		n = len(cx)
	}
	if n < 2 {
		return InvestmentSplit{High: Absent(), Low: Absent()}
	}

	changes := make([]Optional, n)
	var defined []float64
	changes[0] = Absent()
	for i := 1; i < n; i++ {
		changes[i] = safeDiv(Present(ni[i]-ni[i-1]), Present(ni[i-1]))
		if v, ok := changes[i].Get(); ok {
			defined = append(defined, v)
		}
	}
	med, hasMedian := median(defined)

	var high, low []float64
	for i := 0; i < n; i++ {
		c, ok := changes[i].Get()
		if ok && hasMedian && c > med {
			high = append(high, cx[i])
		} else {
			low = append(low, cx[i])
		}
	}
	return InvestmentSplit{High: mean(high), Low: mean(low)}
}

// CAGR = (last / first)^(1/n) - 1 where n is the number of observations.
func CAGR(s align.TimeSeries) Optional {
	v := s.Values()
	n := len(v)
	if n < 2 || v[0] == 0 {
		return Absent()
	}
	ratio := v[n-1] / v[0]
	if ratio < 0 {
		return Absent()
	}
	g := math.Pow(ratio, 1/float64(n)) - 1
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return Absent()
	}
	return Present(g)
}

// Valuation compares market capitalization with book-value intrinsic value.
type Valuation struct {
	MarketCap      Optional `json:"market_cap"`
	IntrinsicValue Optional `json:"intrinsic_value"`
}

// Undervalued reports market cap < intrinsic value; Absent when either side
// is missing.
func (v Valuation) Undervalued() (bool, bool) {
	mc, ok1 := v.MarketCap.Get()
	iv, ok2 := v.IntrinsicValue.Get()
	if !ok1 || !ok2 {
		return false, false
	}
	return mc < iv, true
}

// DefineValuation computes intrinsic value as Book Value * Shares Outstanding.
func DefineValuation(marketCap, bookValue, shares align.TimeSeries) Valuation {
	v := Valuation{MarketCap: latest(marketCap), IntrinsicValue: Absent()}
	bv, ok1 := latest(bookValue).Get()
	so, ok2 := latest(shares).Get()
	if ok1 && ok2 {
		v.IntrinsicValue = Present(bv * so)
	}
	return v
}

// OperatingLeverage = mean(opex) / (mean(opex) + mean(cost of revenue)).
func OperatingLeverage(opex, costOfRevenue align.TimeSeries) Optional {
	fixed := mean(opex.Values())
	variable := mean(costOfRevenue.Values())
	f, ok1 := fixed.Get()
	v, ok2 := variable.Get()
	if !ok1 || !ok2 {
		return Absent()
	}
	return safeDiv(Present(f), Present(f+v))
}

func mean(xs []float64) Optional {
	if len(xs) == 0 {
		return Absent()
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return Present(sum / float64(len(xs)))
}

func median(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid], true
	}
	return (s[mid-1] + s[mid]) / 2, true
}
