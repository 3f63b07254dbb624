package forecast

import (
	"errors"
	"math"
	"testing"
)

func TestEvaluateOverEdge(t *testing.T) {
	// Simple estimate over [20,22,24,26,28] against a 23.5 line at -110.
	pred := Prediction{Value: 24.0, Dispersion: math.Sqrt(10), SampleSize: 5}

	result, err := Evaluate(pred, 23.5, DefaultOdds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(result.ProbOver-0.5628) > 0.001 {
		t.Fatalf("expected prob over near 0.5628, got %v", result.ProbOver)
	}
	if math.Abs(result.ProbOver+result.ProbUnder-1.0) > 1e-12 {
		t.Fatalf("probabilities must sum to one, got %v", result.ProbOver+result.ProbUnder)
	}
	if math.Abs(result.EVOver-0.0745) > 0.001 {
		t.Fatalf("expected EV over near +0.0745, got %v", result.EVOver)
	}
	if math.Abs(result.EVUnder-(-0.1654)) > 0.001 {
		t.Fatalf("expected EV under near -0.1654, got %v", result.EVUnder)
	}
	if result.Recommendation != RecommendOver {
		t.Fatalf("expected OVER, got %s", result.Recommendation)
	}
}

func TestEvaluateUnderEdge(t *testing.T) {
	pred := Prediction{Value: 20.0, Dispersion: 3.0, SampleSize: 8}

	result, err := Evaluate(pred, 23.5, DefaultOdds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProbUnder <= result.ProbOver {
		t.Fatalf("expected the under to be more likely, got over=%v under=%v", result.ProbOver, result.ProbUnder)
	}
	if result.EVUnder <= 0 {
		t.Fatalf("expected positive EV on the under, got %v", result.EVUnder)
	}
	if result.Recommendation != RecommendUnder {
		t.Fatalf("expected UNDER, got %s", result.Recommendation)
	}
}

func TestEvaluateBothNegativePasses(t *testing.T) {
	// A projection sitting on the line at -110 juice loses both ways.
	pred := Prediction{Value: 23.5, Dispersion: 3.0, SampleSize: 8}

	result, err := Evaluate(pred, 23.5, DefaultOdds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.EVOver >= 0 || result.EVUnder >= 0 {
		t.Fatalf("expected both EVs negative, got over=%v under=%v", result.EVOver, result.EVUnder)
	}
	if result.Recommendation != RecommendPass {
		t.Fatalf("expected PASS, got %s", result.Recommendation)
	}
}

func TestEvaluateFairCoinFairOddsPasses(t *testing.T) {
	// Even-money payout on a 50/50 line: both EVs are exactly zero,
	// and zero edge is not a bet.
	pred := Prediction{Value: 10.0, Dispersion: 2.0, SampleSize: 5}

	result, err := Evaluate(pred, 10.0, OddsSpec{ProfitPerUnit: 1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProbOver != 0.5 || result.ProbUnder != 0.5 {
		t.Fatalf("expected exact 0.5 probabilities, got over=%v under=%v", result.ProbOver, result.ProbUnder)
	}
	if result.EVOver != 0 || result.EVUnder != 0 {
		t.Fatalf("expected exactly zero EVs, got over=%v under=%v", result.EVOver, result.EVUnder)
	}
	if result.Recommendation != RecommendPass {
		t.Fatalf("expected PASS, got %s", result.Recommendation)
	}
}

func TestEvaluateZeroDispersion(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		line     float64
		probOver float64
	}{
		{"mean above line", 25, 20, 1.0},
		{"mean below line", 15, 20, 0.0},
		{"mean on line", 20, 20, 0.5},
	}

	for _, tt := range tests {
		pred := Prediction{Value: tt.value, Dispersion: 0, SampleSize: 3}
		result, err := Evaluate(pred, tt.line, DefaultOdds())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if result.ProbOver != tt.probOver {
			t.Fatalf("%s: expected prob over %v, got %v", tt.name, tt.probOver, result.ProbOver)
		}
		if result.ProbUnder != 1.0-tt.probOver {
			t.Fatalf("%s: expected prob under %v, got %v", tt.name, 1.0-tt.probOver, result.ProbUnder)
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	valid := Prediction{Value: 24.0, Dispersion: 3.0, SampleSize: 5}

	tests := []struct {
		name    string
		pred    Prediction
		line    float64
		odds    OddsSpec
		wantErr error
	}{
		{"NaN line", valid, math.NaN(), DefaultOdds(), ErrInvalidLine},
		{"Inf line", valid, math.Inf(1), DefaultOdds(), ErrInvalidLine},
		{"zero profit", valid, 23.5, OddsSpec{ProfitPerUnit: 0}, ErrInvalidOdds},
		{"negative profit", valid, 23.5, OddsSpec{ProfitPerUnit: -0.5}, ErrInvalidOdds},
		{"NaN profit", valid, 23.5, OddsSpec{ProfitPerUnit: math.NaN()}, ErrInvalidOdds},
		{"NaN value", Prediction{Value: math.NaN(), Dispersion: 3}, 23.5, DefaultOdds(), ErrInvalidPrediction},
		{"NaN dispersion", Prediction{Value: 24, Dispersion: math.NaN()}, 23.5, DefaultOdds(), ErrInvalidPrediction},
		{"negative dispersion", Prediction{Value: 24, Dispersion: -1}, 23.5, DefaultOdds(), ErrInvalidPrediction},
	}

	for _, tt := range tests {
		_, err := Evaluate(tt.pred, tt.line, tt.odds)
		if !errors.Is(err, tt.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
		}
	}
}

func TestOddsFromAmerican(t *testing.T) {
	tests := []struct {
		american int
		profit   float64
		ok       bool
	}{
		{-110, 100.0 / 110.0, true},
		{150, 1.5, true},
		{-200, 0.5, true},
		{100, 1.0, true},
		{-100, 1.0, true},
		{0, 0, false},
		{50, 0, false},
		{-99, 0, false},
	}

	for _, tt := range tests {
		odds, err := OddsFromAmerican(tt.american)
		if tt.ok {
			if err != nil {
				t.Fatalf("american %d: unexpected error: %v", tt.american, err)
			}
			if math.Abs(odds.ProfitPerUnit-tt.profit) > 1e-12 {
				t.Fatalf("american %d: expected profit %v, got %v", tt.american, tt.profit, odds.ProfitPerUnit)
			}
		} else if !errors.Is(err, ErrInvalidOdds) {
			t.Fatalf("american %d: expected ErrInvalidOdds, got %v", tt.american, err)
		}
	}
}

func TestImpliedProbability(t *testing.T) {
	// Standard -110 juice implies 52.38% to break even.
	got := DefaultOdds().ImpliedProbability()
	if math.Abs(got-110.0/210.0) > 1e-12 {
		t.Fatalf("expected implied probability %v, got %v", 110.0/210.0, got)
	}
}
