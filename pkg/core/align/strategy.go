package align

import (
	"fmt"
	"strings"

	"equiintel/pkg/core/locate"
)

// Strategy pairs the candidates of one label with the document's dates.
// pageAt maps a byte offset to a source page (may be nil).
type Strategy interface {
	Name() string
	Align(dates []DateMark, cands []locate.Candidate, pageAt func(int) int) TimeSeries
}

// Positional pairs the i-th value with the i-th date, clamped to the last
// date. It assumes dates and values appear in matching order, which holds for
// simple one-column-per-period layouts only.
type Positional struct{}

func (Positional) Name() string { return "positional" }

func (Positional) Align(dates []DateMark, cands []locate.Candidate, pageAt func(int) int) TimeSeries {
	series := make(TimeSeries, 0, len(cands))
	for i, c := range cands {
		date := Unknown
		if len(dates) > 0 {
			date = dates[min(i, len(dates)-1)].Date
		}
		series = append(series, observation(c, date, pageAt))
	}
	return series.Sorted()
}

// NearestLine pairs each value with the date whose line is closest to the
// value's line. Dates are scanned in document order, so ties go to the
// earlier date.
type NearestLine struct{}

func (NearestLine) Name() string { return "nearest_line" }

func (NearestLine) Align(dates []DateMark, cands []locate.Candidate, pageAt func(int) int) TimeSeries {
	series := make(TimeSeries, 0, len(cands))
	for _, c := range cands {
		date := Unknown
		best := -1
		for _, d := range dates {
			dist := abs(d.Line - c.Line)
			if best < 0 || dist < best {
				best = dist
				date = d.Date
			}
		}
		series = append(series, observation(c, date, pageAt))
	}
	return series.Sorted()
}

// ByName resolves a configured strategy name.
func ByName(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "positional":
		return Positional{}, nil
	case "nearest_line", "nearest-line", "nearest":
		return NearestLine{}, nil
	}
	return nil, fmt.Errorf("unknown alignment strategy %q", name)
}

func observation(c locate.Candidate, date string, pageAt func(int) int) DatedValue {
	dv := DatedValue{Date: date, Value: c.Value, Line: c.Line}
	if pageAt != nil {
		dv.Page = pageAt(c.Offset)
	}
	return dv
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
