// Package forecast implements the per-player performance forecaster: a
// recency-weighted estimator over recent game statistics and a Gaussian
// expected-value engine for judging over/under wagers against a posted line.
// Every function here is pure: no I/O, no shared state, safe for concurrent
// callers.
package forecast

import (
	"fmt"
	"math"
)

// Method selects how the estimator turns a window of observations into a
// point prediction.
type Method string

const (
	// MethodSimple weights every observation in the window equally.
	MethodSimple Method = "SIMPLE"
	// MethodWeighted decays older observations geometrically.
	MethodWeighted Method = "WEIGHTED"
)

// Valid reports whether the method is one of the supported values
func (m Method) Valid() bool {
	return m == MethodSimple || m == MethodWeighted
}

// ParseMethod converts a string (flag or config value) into a Method
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
	}
	return m, nil
}

// Prediction is the estimator output: a point prediction, a dispersion used
// as the Gaussian scale parameter downstream, and the number of observations
// actually used. Dispersion is always >= 0.
type Prediction struct {
	Value      float64 `json:"value"`
	Dispersion float64 `json:"dispersion"`
	SampleSize int     `json:"sample_size"`
}

// Estimate produces a Prediction from the most recent `window` observations
// of the history. When fewer observations exist than requested the whole
// history is used and SampleSize shrinks accordingly.
//
// MethodSimple takes the arithmetic mean with the sample standard deviation
// (ddof=1); a single observation yields dispersion 0. MethodWeighted assigns
// weight decay^i to the i-th most recent observation (i=0 for the newest,
// decay strictly inside (0,1)): the prediction is the weighted mean and the
// dispersion is the square root of the weighted population variance
// sum(w*(x-mean)^2)/sum(w). The decay argument is ignored for MethodSimple.
func Estimate(history History, window int, method Method, decay float64) (Prediction, error) {
	if window <= 0 {
		return Prediction{}, fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}
	if len(history) == 0 {
		return Prediction{}, ErrInsufficientData
	}

	selected := history.window(window)
	if err := selected.validate(); err != nil {
		return Prediction{}, err
	}

	switch method {
	case MethodSimple:
		return simpleEstimate(selected), nil
	case MethodWeighted:
		if math.IsNaN(decay) || decay <= 0 || decay >= 1 {
			return Prediction{}, fmt.Errorf("%w: %v", ErrInvalidDecay, decay)
		}
		return weightedEstimate(selected, decay), nil
	default:
		return Prediction{}, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
}

func simpleEstimate(obs History) Prediction {
	n := len(obs)
	sum := 0.0
	for _, o := range obs {
		sum += o.Value
	}
	mean := sum / float64(n)

	dispersion := 0.0
	if n > 1 {
		ss := 0.0
		for _, o := range obs {
			diff := o.Value - mean
			ss += diff * diff
		}
		dispersion = math.Sqrt(ss / float64(n-1))
	}

	return Prediction{Value: mean, Dispersion: dispersion, SampleSize: n}
}

func weightedEstimate(obs History, decay float64) Prediction {
	n := len(obs)

	// Observations are stored oldest-first; weight decay^i counts back from
	// the newest, so the last element carries weight 1.
	weights := make([]float64, n)
	sumW := 0.0
	sumWX := 0.0
	for i := 0; i < n; i++ {
		w := math.Pow(decay, float64(i))
		x := obs[n-1-i].Value
		weights[i] = w
		sumW += w
		sumWX += w * x
	}
	mean := sumWX / sumW

	variance := 0.0
	for i := 0; i < n; i++ {
		diff := obs[n-1-i].Value - mean
		variance += weights[i] * diff * diff
	}
	variance /= sumW

	return Prediction{Value: mean, Dispersion: math.Sqrt(variance), SampleSize: n}
}
