// Package extract assembles the financial dataset: it resolves every required
// line item through one or more series sources and applies the missing-value
// and manual override policy.
package extract

import "strings"

// Label is a financial line-item name, matched case-insensitively.
type Label string

const (
	NetIncome           Label = "Net Income"
	TotalAssets         Label = "Total Assets"
	CurrentLiabilities  Label = "Current Liabilities"
	CapitalExpenditures Label = "Capital Expenditures"
	TotalRevenue        Label = "Total Revenue"
	MarketCap           Label = "Market Cap"
	BookValue           Label = "Book Value"
	SharesOutstanding   Label = "Shares Outstanding"
	OperatingExpenses   Label = "Operating Expenses"
	CostOfRevenue       Label = "Cost of Revenue"
)

// Required is the fixed label set, in report order.
var Required = []Label{
	NetIncome,
	TotalAssets,
	CurrentLiabilities,
	CapitalExpenditures,
	TotalRevenue,
	MarketCap,
	BookValue,
	SharesOutstanding,
	OperatingExpenses,
	CostOfRevenue,
}

// ParseLabel resolves a label name case-insensitively against Required.
func ParseLabel(s string) (Label, bool) {
	s = strings.Join(strings.Fields(s), " ")
	for _, l := range Required {
		if strings.EqualFold(string(l), s) {
			return l, true
		}
	}
	return "", false
}
