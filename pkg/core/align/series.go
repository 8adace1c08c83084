package align

import "sort"

// DatedValue is one resolved observation of a line item.
type DatedValue struct {
	Date  string  `json:"date"` // YYYY-MM-DD or "Unknown"
	Value float64 `json:"value"`
	Line  int     `json:"line,omitempty"` // provenance: line in the extracted text
	Page  int     `json:"page,omitempty"` // provenance: 1-based source page
}

// TimeSeries is ordered by date; values with an Unknown date keep document order.
type TimeSeries []DatedValue

// Len returns the number of observations.
func (s TimeSeries) Len() int { return len(s) }

// Values returns the bare values in series order.
func (s TimeSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, dv := range s {
		out[i] = dv.Value
	}
	return out
}

// Latest returns the last observation, if any.
func (s TimeSeries) Latest() (DatedValue, bool) {
	if len(s) == 0 {
		return DatedValue{}, false
	}
	return s[len(s)-1], true
}

// Sorted returns a copy ordered by date. Unknown dates sort after known ones
// and keep their relative order.
func (s TimeSeries) Sorted() TimeSeries {
	out := make(TimeSeries, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Date, out[j].Date
		if a == Unknown || b == Unknown {
			return a != Unknown && b == Unknown
		}
		return a < b
	})
	return out
}
