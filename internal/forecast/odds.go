package forecast

import (
	"fmt"
	"math"
)

// OddsSpec captures a fixed-odds payout as the net profit per unit staked on
// a winning bet. A losing bet always forfeits the full unit.
type OddsSpec struct {
	ProfitPerUnit float64 `json:"profit_per_unit"`
}

// DefaultOdds returns the standard -110 book price: win 100 for every 110
// staked, i.e. a net profit of 100/110 per unit.
func DefaultOdds() OddsSpec {
	return OddsSpec{ProfitPerUnit: 100.0 / 110.0}
}

// OddsFromAmerican converts American odds into an OddsSpec.
// Positive odds quote the profit on a 100 stake (+150 -> 1.5 per unit);
// negative odds quote the stake needed to win 100 (-110 -> 100/110 per unit).
// Values inside (-100, 100) are not valid American odds.
func OddsFromAmerican(american int) (OddsSpec, error) {
	switch {
	case american >= 100:
		return OddsSpec{ProfitPerUnit: float64(american) / 100.0}, nil
	case american <= -100:
		return OddsSpec{ProfitPerUnit: 100.0 / float64(-american)}, nil
	default:
		return OddsSpec{}, fmt.Errorf("%w: american odds %d", ErrInvalidOdds, american)
	}
}

// Valid reports whether the odds describe a payable price
func (o OddsSpec) Valid() bool {
	return o.ProfitPerUnit > 0 && !math.IsInf(o.ProfitPerUnit, 0) && !math.IsNaN(o.ProfitPerUnit)
}

// ImpliedProbability returns the break-even win probability for this price:
// the probability at which expected value is exactly zero.
func (o OddsSpec) ImpliedProbability() float64 {
	if !o.Valid() {
		return 0
	}
	return 1.0 / (1.0 + o.ProfitPerUnit)
}
