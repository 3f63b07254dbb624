package forecast

// Rest adjustments by days since the previous game, in statistic units.
// Back-to-backs depress output; two days of rest is the sweet spot; four or
// more days is treated as a normal schedule.
var restAdjustments = map[int]float64{
	0: -1.5,
	1: -0.4,
	2: +1.1,
	3: +0.5,
	4: 0.0,
}

// RestAdjustment returns the additive adjustment for the given days of rest.
// Days beyond 4 are capped at 4; negative values mean rest is unknown and get
// no adjustment.
func RestAdjustment(daysRest int) float64 {
	if daysRest < 0 {
		return 0
	}
	if daysRest > 4 {
		daysRest = 4
	}
	return restAdjustments[daysRest]
}

// AdjustForRest returns a copy of the prediction with the rest adjustment
// applied to its value. Dispersion and sample size are untouched: rest shifts
// the expected level, not the spread.
func AdjustForRest(pred Prediction, daysRest int) Prediction {
	pred.Value += RestAdjustment(daysRest)
	return pred
}
