package backtest

import (
	"math"
	"testing"

	"github.com/yourusername/prop-edge/internal/models"
)

func settledBet(status models.BetStatus, profitLoss float64, gameDay int) *SettledBet {
	return &SettledBet{
		StatType:   models.StatTypePoints,
		GameDate:   day(2024, 1, gameDay),
		Side:       models.BetSideOver,
		Status:     status,
		ProfitLoss: profitLoss,
	}
}

func TestCalculateMetrics(t *testing.T) {
	start := day(2024, 1, 1)
	end := day(2024, 1, 10)

	state := NewState(1000, start)
	bets := []*SettledBet{
		settledBet(models.BetStatusWon, 90, 2),
		settledBet(models.BetStatusLost, -50, 3),
		settledBet(models.BetStatusLost, -30, 4),
		settledBet(models.BetStatusVoid, 0, 5),
	}
	for _, bet := range bets {
		state.Settle(bet)
		state.RecordEquityPoint(bet.GameDate, state.CurrentBankroll)
	}

	m := CalculateMetrics(state, start, end, 0)

	if math.Abs(m.TotalReturn-0.01) > 1e-9 {
		t.Errorf("total return: expected 0.01, got %f", m.TotalReturn)
	}
	if m.TradingDays != 10 {
		t.Errorf("trading days: expected 10, got %d", m.TradingDays)
	}
	if m.TotalBets != 4 || m.WinningBets != 1 || m.LosingBets != 2 || m.VoidBets != 1 {
		t.Errorf("unexpected bet tally: %+v", m)
	}

	// Voids stay out of the win rate but count toward expectancy.
	if math.Abs(m.WinRate-1.0/3.0) > 1e-9 {
		t.Errorf("win rate: expected 1/3, got %f", m.WinRate)
	}
	if math.Abs(m.Expectancy-2.5) > 1e-9 {
		t.Errorf("expectancy: expected 2.5, got %f", m.Expectancy)
	}

	if math.Abs(m.ProfitFactor-90.0/80.0) > 1e-9 {
		t.Errorf("profit factor: expected 1.125, got %f", m.ProfitFactor)
	}
	if m.AverageWin != 90 || m.AverageLoss != -40 {
		t.Errorf("averages: expected 90/-40, got %f/%f", m.AverageWin, m.AverageLoss)
	}
	if m.LargestWin != 90 || m.LargestLoss != -50 {
		t.Errorf("extremes: expected 90/-50, got %f/%f", m.LargestWin, m.LargestLoss)
	}

	// Peak 1090 after the win, trough 1010 after the losses.
	wantDrawdown := 80.0 / 1090.0
	if math.Abs(m.MaxDrawdown-wantDrawdown) > 1e-9 {
		t.Errorf("max drawdown: expected %f, got %f", wantDrawdown, m.MaxDrawdown)
	}

	if m.CAGR <= 0 {
		t.Errorf("expected positive CAGR, got %f", m.CAGR)
	}
	if m.SharpeRatio <= 0 {
		t.Errorf("expected positive sharpe, got %f", m.SharpeRatio)
	}
	if m.SortinoRatio <= 0 {
		t.Errorf("expected positive sortino, got %f", m.SortinoRatio)
	}
	if m.VaR95 >= 0 {
		t.Errorf("expected negative VaR95, got %f", m.VaR95)
	}

	if pl := state.DailyPnL["2024-01-02"]; pl != 90 {
		t.Errorf("daily pnl: expected 90 on the win day, got %f", pl)
	}
}

func TestCalculateMetricsEmptyState(t *testing.T) {
	start := day(2024, 1, 1)
	end := day(2024, 1, 31)

	m := CalculateMetrics(nil, start, end, 0)
	if m.TotalBets != 0 || m.TotalReturn != 0 {
		t.Errorf("nil state should yield zero metrics, got %+v", m)
	}
	if m.TradingDays != 31 {
		t.Errorf("trading days: expected 31, got %d", m.TradingDays)
	}

	m = CalculateMetrics(NewState(1000, start), start, end, 0)
	if m.TotalReturn != 0 || m.WinRate != 0 || m.ProfitFactor != 0 {
		t.Errorf("betless state should yield zero performance, got %+v", m)
	}
}

func TestProfitFactorCapsWithNoLosses(t *testing.T) {
	tally := tallyBets([]*SettledBet{
		settledBet(models.BetStatusWon, 50, 2),
		settledBet(models.BetStatusWon, 30, 3),
	})
	if got := tally.profitFactor(); got != profitFactorCap {
		t.Errorf("expected capped profit factor %v, got %v", profitFactorCap, got)
	}

	if got := (betTally{}).profitFactor(); got != 0 {
		t.Errorf("expected zero profit factor with no bets, got %v", got)
	}
}

func TestMeanAbsoluteError(t *testing.T) {
	tests := []struct {
		name    string
		records []PredictionRecord
		want    float64
	}{
		{"empty", nil, 0},
		{"single", []PredictionRecord{{Predicted: 20, Actual: 25}}, 5},
		{"mixed", []PredictionRecord{
			{Predicted: 20, Actual: 30},
			{Predicted: 22.4, Actual: 10},
		}, 11.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeanAbsoluteError(tt.records)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MeanAbsoluteError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuantile(t *testing.T) {
	values := []float64{4, 1, 3, 2}

	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{"min", 0, 1},
		{"median", 0.5, 2},
		{"max", 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quantile(values, tt.p); got != tt.want {
				t.Errorf("quantile(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}

	// The input slice must not be reordered.
	if values[0] != 4 || values[3] != 2 {
		t.Errorf("quantile mutated its input: %v", values)
	}
}

func TestPopulationStddev(t *testing.T) {
	// Classic worked example: population stddev exactly 2.
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := populationStddev(values); math.Abs(got-2.0) > 1e-9 {
		t.Errorf("populationStddev() = %v, want 2", got)
	}
	if got := populationStddev(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %v", got)
	}
}

func TestSharpeRatioFlatReturnsIsZero(t *testing.T) {
	returns := []float64{0.01, 0.01, 0.01}
	if got := sharpeRatio(returns, 0); got != 0 {
		t.Errorf("flat returns have no deviation, expected 0, got %v", got)
	}
	if got := sharpeRatio(nil, 0); got != 0 {
		t.Errorf("expected 0 for empty returns, got %v", got)
	}
}

func TestCompoundAnnualGrowth(t *testing.T) {
	// Doubling over exactly one year is 100% CAGR.
	if got := compoundAnnualGrowth(1000, 2000, 365); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected 1.0, got %v", got)
	}
	if got := compoundAnnualGrowth(0, 2000, 365); got != 0 {
		t.Errorf("expected 0 with zero initial, got %v", got)
	}
	if got := compoundAnnualGrowth(1000, 0, 365); got != 0 {
		t.Errorf("expected 0 with zero final, got %v", got)
	}
}
