package forecast

import (
	"math"
	"time"
)

// Observation is one game's measured value for a tracked statistic.
type Observation struct {
	GameDate time.Time `json:"game_date"`
	Value    float64   `json:"value"`
}

// History is an ordered sequence of observations for one player and statistic,
// oldest first: the most recent game is always the last element. All estimator
// window and weighting logic depends on this ordering.
type History []Observation

// HistoryFromValues builds a History from bare values in chronological order
// (most recent last). Useful when order keys are implicit.
func HistoryFromValues(values []float64) History {
	h := make(History, len(values))
	for i, v := range values {
		h[i] = Observation{Value: v}
	}
	return h
}

// Values returns the observation values in chronological order
func (h History) Values() []float64 {
	vals := make([]float64, len(h))
	for i, obs := range h {
		vals[i] = obs.Value
	}
	return vals
}

// Latest returns the most recent observation and false when the history is empty
func (h History) Latest() (Observation, bool) {
	if len(h) == 0 {
		return Observation{}, false
	}
	return h[len(h)-1], true
}

// window returns the most recent n observations (all of them when fewer exist)
func (h History) window(n int) History {
	if n >= len(h) {
		return h
	}
	return h[len(h)-n:]
}

// validate rejects non-finite observation values
func (h History) validate() error {
	for _, obs := range h {
		if math.IsNaN(obs.Value) || math.IsInf(obs.Value, 0) {
			return ErrInvalidObservation
		}
	}
	return nil
}
