// Package align pairs located line-item values with dates found in the same
// document, producing an ordered time series per line item.
package align

import (
	"regexp"
	"strings"
	"time"
)

// Unknown tags a value for which no date could be associated.
const Unknown = "Unknown"

var datePattern = regexp.MustCompile(`\b(\d{4})[-/](\d{2})[-/](\d{2})\b`)

// DateMark is a date found in the text together with its position.
type DateMark struct {
	Date   string `json:"date"` // normalized YYYY-MM-DD
	Offset int    `json:"offset"`
	Line   int    `json:"line"`
}

// ScanDates finds ISO-like dates (YYYY-MM-DD or YYYY/MM/DD) in document order.
// Separators are normalized to dashes; impossible calendar dates are dropped.
// The result is computed once per document and shared by all labels.
func ScanDates(text string) []DateMark {
	var marks []DateMark
	line, last := 1, 0
	for _, m := range datePattern.FindAllStringSubmatchIndex(text, -1) {
		date := text[m[2]:m[3]] + "-" + text[m[4]:m[5]] + "-" + text[m[6]:m[7]]
		if _, err := time.Parse("2006-01-02", date); err != nil {
			continue
		}
		line += strings.Count(text[last:m[0]], "\n")
		last = m[0]
		marks = append(marks, DateMark{Date: date, Offset: m[0], Line: line})
	}
	return marks
}
