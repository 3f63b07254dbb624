package backtest

import (
	"math"
	"sort"
	"time"

	"github.com/yourusername/prop-edge/internal/models"
)

// Annualization treats one equity period as one trading day.
const periodsPerYear = 252.0

// profitFactorCap stands in for infinity when a run has no losing bets,
// keeping the value JSON-encodable.
const profitFactorCap = 999.0

// Metrics summarizes a replay's performance
type Metrics struct {
	TotalReturn  float64   `json:"total_return"`
	CAGR         float64   `json:"cagr"`
	MaxDrawdown  float64   `json:"max_drawdown"`
	SharpeRatio  float64   `json:"sharpe_ratio"`
	SortinoRatio float64   `json:"sortino_ratio"`
	VaR95        float64   `json:"var_95"`
	VaR99        float64   `json:"var_99"`
	TotalBets    int       `json:"total_bets"`
	WinningBets  int       `json:"winning_bets"`
	LosingBets   int       `json:"losing_bets"`
	VoidBets     int       `json:"void_bets"`
	WinRate      float64   `json:"win_rate"`
	ProfitFactor float64   `json:"profit_factor"`
	AverageWin   float64   `json:"average_win"`
	AverageLoss  float64   `json:"average_loss"`
	Expectancy   float64   `json:"expectancy"`
	LargestWin   float64   `json:"largest_win"`
	LargestLoss  float64   `json:"largest_loss"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	TradingDays  int       `json:"trading_days"`
}

// CalculateMetrics summarizes a finished replay over [start, end]
func CalculateMetrics(state *State, start, end time.Time, riskFreeRate float64) Metrics {
	m := Metrics{
		StartDate:   start,
		EndDate:     end,
		TradingDays: tradingDays(start, end),
	}

	if state == nil || len(state.EquityCurve) == 0 {
		return m
	}

	initial := state.EquityCurve.Initial()
	final := state.EquityCurve.Final()
	if initial > 0 {
		m.TotalReturn = (final - initial) / initial
		m.CAGR = compoundAnnualGrowth(initial, final, m.TradingDays)
	}

	m.MaxDrawdown = state.EquityCurve.MaxDrawdown()

	returns := state.EquityCurve.Returns()
	m.SharpeRatio = sharpeRatio(returns, riskFreeRate)
	m.SortinoRatio = sortinoRatio(returns, riskFreeRate)
	m.VaR95 = valueAtRisk(returns, 0.95)
	m.VaR99 = valueAtRisk(returns, 0.99)

	tally := tallyBets(state.Bets)
	m.TotalBets = len(state.Bets)
	m.WinningBets = tally.wins
	m.LosingBets = tally.losses
	m.VoidBets = tally.voids
	m.WinRate = tally.winRate()
	m.ProfitFactor = tally.profitFactor()
	m.AverageWin = tally.averageWin()
	m.AverageLoss = tally.averageLoss()
	m.Expectancy = tally.expectancy()
	m.LargestWin = tally.largestWin
	m.LargestLoss = tally.largestLoss

	return m
}

// MeanAbsoluteError measures estimator calibration across a replay
func MeanAbsoluteError(records []PredictionRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range records {
		sum += math.Abs(r.Predicted - r.Actual)
	}
	return sum / float64(len(records))
}

// betTally accumulates per-outcome bet statistics
type betTally struct {
	wins, losses, voids     int
	winSum, lossSum         float64
	largestWin, largestLoss float64
	net                     float64
}

func tallyBets(bets []*SettledBet) betTally {
	var t betTally
	for _, bet := range bets {
		t.net += bet.ProfitLoss
		switch bet.Status {
		case models.BetStatusWon:
			t.wins++
			t.winSum += bet.ProfitLoss
			if bet.ProfitLoss > t.largestWin {
				t.largestWin = bet.ProfitLoss
			}
		case models.BetStatusLost:
			t.losses++
			t.lossSum += bet.ProfitLoss
			if bet.ProfitLoss < t.largestLoss {
				t.largestLoss = bet.ProfitLoss
			}
		default:
			t.voids++
		}
	}
	return t
}

// winRate excludes voids from the denominator, matching the live analytics
func (t betTally) winRate() float64 {
	decided := t.wins + t.losses
	if decided == 0 {
		return 0
	}
	return float64(t.wins) / float64(decided)
}

func (t betTally) profitFactor() float64 {
	grossLoss := math.Abs(t.lossSum)
	if grossLoss == 0 {
		if t.winSum > 0 {
			return profitFactorCap
		}
		return 0
	}
	return t.winSum / grossLoss
}

func (t betTally) averageWin() float64 {
	if t.wins == 0 {
		return 0
	}
	return t.winSum / float64(t.wins)
}

func (t betTally) averageLoss() float64 {
	if t.losses == 0 {
		return 0
	}
	return t.lossSum / float64(t.losses)
}

// expectancy is the mean profit per placed bet, voids included
func (t betTally) expectancy() float64 {
	total := t.wins + t.losses + t.voids
	if total == 0 {
		return 0
	}
	return t.net / float64(total)
}

func sharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	std := populationStddev(returns)
	if std == 0 {
		return 0
	}
	excess := mean(returns) - riskFreeRate/periodsPerYear
	return excess / std * math.Sqrt(periodsPerYear)
}

func sortinoRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	std := downsideStddev(returns)
	if std == 0 {
		return 0
	}
	excess := mean(returns) - riskFreeRate/periodsPerYear
	return excess / std * math.Sqrt(periodsPerYear)
}

// valueAtRisk returns the (1-level) quantile of the return distribution: the
// per-period loss exceeded only (1-level) of the time
func valueAtRisk(returns []float64, level float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return quantile(returns, 1.0-level)
}

func compoundAnnualGrowth(initial, final float64, days int) float64 {
	if initial <= 0 || final <= 0 || days <= 0 {
		return 0
	}
	years := float64(days) / 365.0
	return math.Pow(final/initial, 1.0/years) - 1.0
}

func tradingDays(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationStddev divides by n, not n-1: replay returns are the whole
// population of interest, not a sample from one
func populationStddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	variance := 0.0
	for _, v := range values {
		diff := v - m
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(len(values)))
}

// downsideStddev is the population stddev of the negative values only
func downsideStddev(values []float64) float64 {
	negatives := make([]float64, 0, len(values))
	for _, v := range values {
		if v < 0 {
			negatives = append(negatives, v)
		}
	}
	return populationStddev(negatives)
}

// quantile returns the p-quantile of values using the lower-index method on
// a sorted copy
func quantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
