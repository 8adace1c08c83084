package locate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNotNumeric is returned by ParseNumber for tokens that are not numbers.
var ErrNotNumeric = errors.New("not a numeric value")

var numberReplacer = strings.NewReplacer(",", "", "$", "", "€", "", "£", "", "₹", "", " ", "")

// ParseNumber normalizes a monetary token and parses it as a float.
// Thousands separators and currency symbols are stripped; "(1,234)" is read
// as -1234. Parsing a normalized token again yields the same value.
func ParseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	s = numberReplacer.Replace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, raw)
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, raw)
	}
	if negative {
		val = -val
	}
	return val, nil
}
