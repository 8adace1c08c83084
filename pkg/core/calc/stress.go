package calc

import (
	"fmt"

	"equiintel/pkg/core/align"
)

// DefaultShocks are the net-income drops applied by StressTest.
var DefaultShocks = []float64{-0.10, -0.25, -0.50}

// Scenario is ROIC recomputed under one net-income shock.
type Scenario struct {
	Name  string   `json:"name"`
	Shock float64  `json:"shock"`
	ROIC  Optional `json:"roic"`
	// PassesHurdle reports ROIC > RoicHurdle under the shock.
	PassesHurdle bool `json:"passes_hurdle"`
}

// StressTest recomputes ROIC with the latest net income scaled by (1+shock)
// for each shock. With no shocks DefaultShocks are used.
func StressTest(netIncome, totalAssets, currentLiabilities align.TimeSeries, shocks ...float64) []Scenario {
	if len(shocks) == 0 {
		shocks = DefaultShocks
	}
	base := ROIC(netIncome, totalAssets, currentLiabilities)
	out := make([]Scenario, 0, len(shocks))
	for _, s := range shocks {
		shock := s
		// ROIC is linear in net income
		r := base.Map(func(v float64) float64 { return v * (1 + shock) })
		v, ok := r.Get()
		out = append(out, Scenario{
			Name:         fmt.Sprintf("net income %+.0f%%", shock*100),
			Shock:        shock,
			ROIC:         r,
			PassesHurdle: ok && v > RoicHurdle,
		})
	}
	return out
}
