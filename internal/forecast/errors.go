package forecast

import "errors"

// Estimation and evaluation errors. Callers should match with errors.Is;
// returned errors may wrap these with additional context.
var (
	ErrInsufficientData   = errors.New("no observations in history")
	ErrInvalidWindow      = errors.New("window must be positive")
	ErrInvalidMethod      = errors.New("unknown estimation method")
	ErrInvalidDecay       = errors.New("decay must be inside (0,1)")
	ErrInvalidObservation = errors.New("non-finite observation value")
	ErrInvalidLine        = errors.New("line must be finite")
	ErrInvalidOdds        = errors.New("profit per unit must be positive and finite")
	ErrInvalidPrediction  = errors.New("prediction value or dispersion not usable")
)
