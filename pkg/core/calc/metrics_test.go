package calc

import (
	"encoding/json"
	"math"
	"testing"

	"equiintel/pkg/core/align"
	"equiintel/pkg/core/extract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(values ...float64) align.TimeSeries {
	out := make(align.TimeSeries, len(values))
	for i, v := range values {
		out[i] = align.DatedValue{Date: align.Unknown, Value: v}
	}
	return out
}

func passing() Inputs {
	return Inputs{
		ROIC:           Present(0.12),
		Growth:         Present(0.06),
		Leverage:       Present(0.6),
		MarketCap:      Present(50),
		IntrinsicValue: Present(100),
		StockReturn:    Present(0.08),
		Benchmark:      Present(0.05),
	}
}

func TestPronounceVerdict(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Inputs)
		want   Verdict
	}{
		{"all thresholds met", func(*Inputs) {}, Invest},
		{"low leverage", func(in *Inputs) { in.Leverage = Present(0.4) }, DoNotInvest},
		{"low roic", func(in *Inputs) { in.ROIC = Present(0.10) }, DoNotInvest},
		{"low growth", func(in *Inputs) { in.Growth = Present(0.05) }, DoNotInvest},
		{"overvalued", func(in *Inputs) { in.MarketCap = Present(150) }, DoNotInvest},
		{"underperforms benchmark", func(in *Inputs) { in.StockReturn = Present(0.01) }, DoNotInvest},
		{"missing growth", func(in *Inputs) { in.Growth = Absent() }, DoNotInvest},
		{"missing intrinsic value", func(in *Inputs) { in.IntrinsicValue = Absent() }, DoNotInvest},
		{"missing benchmark", func(in *Inputs) { in.Benchmark = Absent() }, NoVerdict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := passing()
			tt.modify(&in)
			assert.Equal(t, tt.want, PronounceVerdict(in))
		})
	}
}

func TestOptional_ZeroIsNotMissing(t *testing.T) {
	zero := Present(0)
	v, ok := zero.Get()
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)
	assert.False(t, Absent().IsPresent())

	b, err := json.Marshal(struct {
		A Optional `json:"a"`
		B Optional `json:"b"`
	}{Present(0), Absent()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":0,"b":null}`, string(b))

	var o Optional
	require.NoError(t, json.Unmarshal([]byte("1.5"), &o))
	assert.Equal(t, Present(1.5), o)
}

func TestROIC(t *testing.T) {
	r := ROIC(series(100, 120), series(1000), series(200))
	v, ok := r.Get()
	require.True(t, ok)
	assert.InDelta(t, 0.15, v, 1e-9)

	// a zero net income is a legitimate zero ROIC
	v, ok = ROIC(series(0), series(1000), series(200)).Get()
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)

	assert.False(t, ROIC(nil, series(1000), series(200)).IsPresent())
	assert.False(t, ROIC(series(1), series(200), series(200)).IsPresent())
}

func TestSplitInvestments(t *testing.T) {
	// changes: -, +0.10, +0.50, -0.20 -> median 0.10, only +0.50 is high
	split := SplitInvestments(series(100, 110, 165, 132), series(10, 20, 30, 40))
	high, ok := split.High.Get()
	require.True(t, ok)
	assert.Equal(t, 30.0, high)
	low, ok := split.Low.Get()
	require.True(t, ok)
	assert.InDelta(t, (10.0+20+40)/3, low, 1e-9)

	short := SplitInvestments(series(100), series(10))
	assert.False(t, short.High.IsPresent())
	assert.False(t, short.Low.IsPresent())
}

func TestCAGR(t *testing.T) {
	v, ok := CAGR(series(100, 121)).Get()
	require.True(t, ok)
	assert.InDelta(t, math.Pow(1.21, 0.5)-1, v, 1e-12)

	assert.False(t, CAGR(nil).IsPresent())
	assert.False(t, CAGR(series(100)).IsPresent())
	assert.False(t, CAGR(series(0, 100)).IsPresent())
}

func TestDefineValuation(t *testing.T) {
	v := DefineValuation(series(50), series(10), series(10))
	under, ok := v.Undervalued()
	assert.True(t, ok)
	assert.True(t, under)

	v = DefineValuation(series(50), nil, series(10))
	_, ok = v.Undervalued()
	assert.False(t, ok)
	assert.True(t, v.MarketCap.IsPresent())
}

func TestOperatingLeverage(t *testing.T) {
	v, ok := OperatingLeverage(series(60, 60), series(30, 50)).Get()
	require.True(t, ok)
	assert.InDelta(t, 0.6, v, 1e-9)

	assert.False(t, OperatingLeverage(series(1), nil).IsPresent())
	assert.False(t, OperatingLeverage(series(0), series(0)).IsPresent())
}

func TestStressTest(t *testing.T) {
	scenarios := StressTest(series(150), series(1000), series(0))
	require.Len(t, scenarios, len(DefaultShocks))

	v, _ := scenarios[0].ROIC.Get()
	assert.InDelta(t, 0.135, v, 1e-9)
	assert.True(t, scenarios[0].PassesHurdle)
	assert.False(t, scenarios[2].PassesHurdle)
	assert.Equal(t, "net income -50%", scenarios[2].Name)

	for _, s := range StressTest(nil, series(1), series(0)) {
		assert.False(t, s.ROIC.IsPresent())
	}
}

func TestEvaluate(t *testing.T) {
	ds := extract.NewDataset(extract.Required)
	set := func(l extract.Label, s align.TimeSeries) {
		require.NoError(t, ds.Set(l, &extract.Entry{Series: s}))
	}
	set(extract.NetIncome, series(100, 150))
	set(extract.TotalAssets, series(1000))
	set(extract.CurrentLiabilities, series(0))
	set(extract.CapitalExpenditures, series(10, 20))
	set(extract.TotalRevenue, series(100, 121))
	set(extract.MarketCap, series(50))
	set(extract.BookValue, series(10))
	set(extract.SharesOutstanding, series(10))
	set(extract.OperatingExpenses, series(60))
	set(extract.CostOfRevenue, series(40))

	m := Evaluate(ds, Present(0.08), Present(0.05))
	assert.Equal(t, Invest, m.Verdict)

	m = Evaluate(ds, Present(0.08), Absent())
	assert.Equal(t, NoVerdict, m.Verdict)
}

func TestEvaluate_EmptyRevenueIsAbsentGrowth(t *testing.T) {
	ds := extract.NewDataset(extract.Required)
	g := AssessGrowth(ds)
	assert.False(t, g.IsPresent())

	m := Evaluate(ds, Present(0.08), Present(0.05))
	assert.False(t, m.Growth.IsPresent())
	assert.Equal(t, DoNotInvest, m.Verdict)
}
