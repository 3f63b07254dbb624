package forecast

import (
	"fmt"
	"math"
)

// Recommendation is the betting call derived from the two expected values
type Recommendation string

const (
	RecommendOver  Recommendation = "OVER"
	RecommendUnder Recommendation = "UNDER"
	RecommendPass  Recommendation = "PASS"
)

// EVResult holds the probability and expected-value assessment of a line.
// Probabilities always sum to 1; EVs are per unit of stake.
type EVResult struct {
	ProbOver       float64        `json:"prob_over"`
	ProbUnder      float64        `json:"prob_under"`
	EVOver         float64        `json:"ev_over"`
	EVUnder        float64        `json:"ev_under"`
	Recommendation Recommendation `json:"recommendation"`
}

// Evaluate judges an over/under line against a prediction. The statistic is
// modeled as Normal(pred.Value, pred.Dispersion), giving
// probOver = 1 - CDF(line). A zero dispersion collapses the distribution to a
// point: probOver is 1 when the prediction clears the line, 0 when it falls
// short, and 0.5 when it lands exactly on it.
//
// Expected values follow evOver = probOver*profit - (1-probOver), and the
// recommendation is OVER when evOver is positive and at least evUnder, UNDER
// when evUnder is positive and strictly greater, PASS otherwise.
func Evaluate(pred Prediction, line float64, odds OddsSpec) (EVResult, error) {
	if math.IsNaN(line) || math.IsInf(line, 0) {
		return EVResult{}, fmt.Errorf("%w: %v", ErrInvalidLine, line)
	}
	if !odds.Valid() {
		return EVResult{}, fmt.Errorf("%w: %v", ErrInvalidOdds, odds.ProfitPerUnit)
	}
	if math.IsNaN(pred.Value) || math.IsInf(pred.Value, 0) {
		return EVResult{}, fmt.Errorf("%w: value %v", ErrInvalidPrediction, pred.Value)
	}
	if math.IsNaN(pred.Dispersion) || math.IsInf(pred.Dispersion, 0) || pred.Dispersion < 0 {
		return EVResult{}, fmt.Errorf("%w: dispersion %v", ErrInvalidPrediction, pred.Dispersion)
	}

	probOver := probabilityOver(pred.Value, pred.Dispersion, line)
	probUnder := 1.0 - probOver

	profit := odds.ProfitPerUnit
	evOver := probOver*profit - probUnder
	evUnder := probUnder*profit - probOver

	result := EVResult{
		ProbOver:  probOver,
		ProbUnder: probUnder,
		EVOver:    evOver,
		EVUnder:   evUnder,
	}

	switch {
	case evOver > 0 && evOver >= evUnder:
		result.Recommendation = RecommendOver
	case evUnder > 0 && evUnder > evOver:
		result.Recommendation = RecommendUnder
	default:
		result.Recommendation = RecommendPass
	}

	return result, nil
}

func probabilityOver(mean, sigma, line float64) float64 {
	if sigma == 0 {
		switch {
		case mean > line:
			return 1.0
		case mean < line:
			return 0.0
		default:
			return 0.5
		}
	}
	z := (line - mean) / sigma
	return 1.0 - normalCDF(z)
}

// normalCDF is the standard normal cumulative distribution function
func normalCDF(z float64) float64 {
	return 0.5 * (1.0 + math.Erf(z/math.Sqrt2))
}
