// Package prices loads share price history and derives the stock return.
package prices

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"equiintel/pkg/core/calc"
	"equiintel/pkg/core/locate"
)

// ErrNoCloseColumn is returned when the price table has no Close column.
var ErrNoCloseColumn = errors.New("price history has no Close column")

// Bar is one row of the price table.
type Bar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// History is a date-ordered close price series.
type History struct {
	Bars []Bar `json:"bars"`
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// LoadCSV reads a price table whose first column is the date index. The
// Close column is located by name, case-insensitively. Rows with an
// unparseable date or close are skipped; the result is sorted by date.
func LoadCSV(r io.Reader) (*History, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("price history is empty")
		}
		return nil, fmt.Errorf("failed to read price header: %w", err)
	}

	closeIdx := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), "close") {
			closeIdx = i
			break
		}
	}
	if closeIdx <= 0 {
		return nil, ErrNoCloseColumn
	}

	h := &History{}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("price history line %d: %w", line, err)
		}
		if closeIdx >= len(rec) {
			continue
		}
		d, err := parseDate(rec[0])
		if err != nil {
			continue
		}
		c, err := locate.ParseNumber(rec[closeIdx])
		if err != nil {
			continue
		}
		h.Bars = append(h.Bars, Bar{Date: d, Close: c})
	}

	sort.SliceStable(h.Bars, func(i, j int) bool { return h.Bars[i].Date.Before(h.Bars[j].Date) })
	return h, nil
}

// Returns is the period-over-period change of Close. A period following a
// zero close is skipped.
func (h *History) Returns() []float64 {
	var out []float64
	for i := 1; i < len(h.Bars); i++ {
		prev := h.Bars[i-1].Close
		if prev == 0 {
			continue
		}
		out = append(out, (h.Bars[i].Close-prev)/prev)
	}
	return out
}

// MeanReturn is the mean period return; Absent with fewer than two prices.
func (h *History) MeanReturn() calc.Optional {
	if h == nil {
		return calc.Absent()
	}
	r := h.Returns()
	if len(r) == 0 {
		return calc.Absent()
	}
	var sum float64
	for _, v := range r {
		sum += v
	}
	return calc.Present(sum / float64(len(r)))
}
