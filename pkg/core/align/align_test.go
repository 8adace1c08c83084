package align

import (
	"testing"

	"equiintel/pkg/core/locate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cands(values ...float64) []locate.Candidate {
	out := make([]locate.Candidate, len(values))
	for i, v := range values {
		out[i] = locate.Candidate{Label: "Net Income", Value: v, Line: i + 1, Offset: i * 10}
	}
	return out
}

func marks(dates ...string) []DateMark {
	out := make([]DateMark, len(dates))
	for i, d := range dates {
		out[i] = DateMark{Date: d, Line: i + 1, Offset: i * 10}
	}
	return out
}

func TestScanDates(t *testing.T) {
	text := "Period 2023-01-01\nPeriod 2023/02/01\nbad 2023-13-45\nid 120230101999"
	got := ScanDates(text)

	require.Len(t, got, 2)
	assert.Equal(t, "2023-01-01", got[0].Date)
	assert.Equal(t, 1, got[0].Line)
	assert.Equal(t, "2023-02-01", got[1].Date)
	assert.Equal(t, 2, got[1].Line)
}

func TestPositional_PairsByIndex(t *testing.T) {
	series := Positional{}.Align(marks("2023-01-01", "2023-02-01"), cands(100, 200), nil)

	require.Len(t, series, 2)
	assert.Equal(t, DatedValue{Date: "2023-01-01", Value: 100, Line: 1}, series[0])
	assert.Equal(t, DatedValue{Date: "2023-02-01", Value: 200, Line: 2}, series[1])
}

func TestPositional_NoDatesIsUnknown(t *testing.T) {
	series := Positional{}.Align(nil, cands(100, 200), nil)

	require.Len(t, series, 2)
	for _, dv := range series {
		assert.Equal(t, Unknown, dv.Date)
	}
	assert.Equal(t, []float64{100, 200}, series.Values())
}

func TestPositional_ClampsToLastDate(t *testing.T) {
	series := Positional{}.Align(marks("2022-12-31"), cands(1, 2, 3), nil)
	for _, dv := range series {
		assert.Equal(t, "2022-12-31", dv.Date)
	}
	assert.Equal(t, []float64{1, 2, 3}, series.Values())
}

func TestPositional_SortsByDate(t *testing.T) {
	series := Positional{}.Align(marks("2023-12-31", "2022-12-31"), cands(300, 200), nil)
	assert.Equal(t, []float64{200, 300}, series.Values())
}

func TestPositional_Empty(t *testing.T) {
	series := Positional{}.Align(marks("2023-01-01"), nil, nil)
	assert.Empty(t, series)
}

func TestNearestLine(t *testing.T) {
	dates := []DateMark{
		{Date: "2022-12-31", Line: 1},
		{Date: "2023-12-31", Line: 10},
	}
	values := []locate.Candidate{
		{Value: 5, Line: 9},
		{Value: 7, Line: 2},
	}
	pageAt := func(off int) int { return 3 }
	series := NearestLine{}.Align(dates, values, pageAt)

	require.Len(t, series, 2)
	assert.Equal(t, DatedValue{Date: "2022-12-31", Value: 7, Line: 2, Page: 3}, series[0])
	assert.Equal(t, DatedValue{Date: "2023-12-31", Value: 5, Line: 9, Page: 3}, series[1])
}

func TestSorted_UnknownLast(t *testing.T) {
	s := TimeSeries{
		{Date: Unknown, Value: 1},
		{Date: "2023-01-01", Value: 2},
		{Date: Unknown, Value: 3},
	}
	assert.Equal(t, []float64{2, 1, 3}, s.Sorted().Values())

	latest, ok := s.Sorted().Latest()
	require.True(t, ok)
	assert.Equal(t, 3.0, latest.Value)

	_, ok = TimeSeries{}.Latest()
	assert.False(t, ok)
}

func TestByName(t *testing.T) {
	s, err := ByName("")
	require.NoError(t, err)
	assert.Equal(t, "positional", s.Name())

	s, err = ByName("nearest_line")
	require.NoError(t, err)
	assert.Equal(t, "nearest_line", s.Name())

	_, err = ByName("semantic")
	assert.Error(t, err)
}
