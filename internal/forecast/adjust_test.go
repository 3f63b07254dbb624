package forecast

import (
	"math"
	"testing"
)

func TestRestAdjustment(t *testing.T) {
	tests := []struct {
		daysRest int
		want     float64
	}{
		{0, -1.5}, // back-to-back
		{1, -0.4},
		{2, 1.1},
		{3, 0.5},
		{4, 0.0},
		{7, 0.0},  // long layoffs cap at the 4+ bucket
		{-1, 0.0}, // unknown rest
	}

	for _, tt := range tests {
		if got := RestAdjustment(tt.daysRest); got != tt.want {
			t.Fatalf("days rest %d: expected %v, got %v", tt.daysRest, tt.want, got)
		}
	}
}

func TestAdjustForRest(t *testing.T) {
	pred := Prediction{Value: 24.0, Dispersion: math.Sqrt(10), SampleSize: 5}

	adjusted := AdjustForRest(pred, 0)
	if adjusted.Value != 22.5 {
		t.Fatalf("expected back-to-back value 22.5, got %v", adjusted.Value)
	}
	if adjusted.Dispersion != pred.Dispersion {
		t.Fatalf("rest adjustment must not touch dispersion, got %v", adjusted.Dispersion)
	}
	if adjusted.SampleSize != pred.SampleSize {
		t.Fatalf("rest adjustment must not touch sample size, got %d", adjusted.SampleSize)
	}
	if pred.Value != 24.0 {
		t.Fatalf("input prediction must not be mutated, got %v", pred.Value)
	}
}
