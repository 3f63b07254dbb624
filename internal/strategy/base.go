package strategy

import "math"

// BaseStrategy carries the gates shared by betting strategies
type BaseStrategy struct {
	MinEdge            float64
	ProbabilityFloor   float64
	ProbabilityCeiling float64
	ConfidenceFloor    float64
	KellyFraction      float64
}

// WithinProbabilityBounds reports whether the win probability sits inside the
// configured band. Probabilities near the extremes usually signal a stale
// history or a mispriced line rather than a playable edge.
func (b *BaseStrategy) WithinProbabilityBounds(p float64) bool {
	if p < b.ProbabilityFloor {
		return false
	}
	if b.ProbabilityCeiling > 0 && p > b.ProbabilityCeiling {
		return false
	}
	return true
}

// ClearsEdge reports whether the expected value meets the minimum edge
func (b *BaseStrategy) ClearsEdge(ev float64) bool {
	return ev >= b.MinEdge
}

// ClearsConfidence reports whether the dispersion-scaled confidence meets the
// floor
func (b *BaseStrategy) ClearsConfidence(confidence float64) bool {
	return confidence >= b.ConfidenceFloor
}

// Kelly returns the fraction of bankroll to stake at the configured Kelly
// multiple: f = (b*p - q) / b, never negative.
func (b *BaseStrategy) Kelly(probability, profitPerUnit float64) float64 {
	if probability <= 0 || profitPerUnit <= 0 {
		return 0
	}
	q := 1.0 - probability
	f := (profitPerUnit*probability - q) / profitPerUnit
	if f <= 0 {
		return 0
	}
	fraction := b.KellyFraction
	if fraction <= 0 {
		fraction = 0.25
	}
	return f * fraction
}

// NormalizeProbability clamps a probability into [0, 1]
func (b *BaseStrategy) NormalizeProbability(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// ConfidenceBucket labels how many dispersions the prediction cleared the
// line by, matching the buckets used in win-rate reporting
func ConfidenceBucket(confidence float64) string {
	switch {
	case confidence >= 2.0:
		return ">=2.0"
	case confidence >= 1.0:
		return "1.0-2.0"
	default:
		return "<1.0"
	}
}
