package backtest

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
)

const defaultMonteCarloIterations = 1000

// MonteCarloConfig tunes the bootstrap resampler
type MonteCarloConfig struct {
	Iterations      int
	InitialBankroll float64
	// Seed fixes the random source for reproducible runs; 0 derives one
	// from the clock.
	Seed int64
}

// MonteCarloResult summarizes the resampled bankroll paths
type MonteCarloResult struct {
	Iterations  int     `json:"iterations"`
	BetsPerPath int     `json:"bets_per_path"`
	MeanFinal   float64 `json:"mean_final"`
	MedianFinal float64 `json:"median_final"`
	StdFinal    float64 `json:"std_final"`
	MeanReturn  float64 `json:"mean_return"`
	// ProbProfit is the share of paths finishing above the starting
	// bankroll; ProbRuin the share that touched zero along the way.
	ProbProfit  float64            `json:"probability_of_profit"`
	ProbRuin    float64            `json:"probability_of_ruin"`
	Percentiles map[string]float64 `json:"percentiles"`
	Finals      []float64          `json:"-"`
}

// Percentile band levels reported for final bankrolls, low to high.
var percentileBandLevels = []struct {
	name  string
	level float64
}{
	{"p05", 0.05},
	{"p25", 0.25},
	{"p50", 0.50},
	{"p75", 0.75},
	{"p95", 0.95},
}

// SettledPLs extracts the profit/loss values of decided bets. Voids carry no
// information worth resampling.
func SettledPLs(bets []*SettledBet) []float64 {
	pls := make([]float64, 0, len(bets))
	for _, bet := range bets {
		if bet.Status == models.BetStatusWon || bet.Status == models.BetStatusLost {
			pls = append(pls, bet.ProfitLoss)
		}
	}
	return pls
}

// RunMonteCarlo bootstraps settled-bet profit/loss values into simulated
// bankroll paths. Each path draws len(pls) results with replacement and
// walks the bankroll through them; a path that touches zero is ruined and
// stays there.
func RunMonteCarlo(pls []float64, cfg MonteCarloConfig) (MonteCarloResult, error) {
	result, err := runMonteCarlo(pls, cfg)
	if err != nil {
		metrics.RecordBacktestRun("monte_carlo", "failure")
		return MonteCarloResult{}, err
	}
	metrics.RecordBacktestRun("monte_carlo", "success")
	metrics.RecordBacktestROI("monte_carlo", result.MeanReturn*100)
	return result, nil
}

func runMonteCarlo(pls []float64, cfg MonteCarloConfig) (MonteCarloResult, error) {
	if len(pls) == 0 {
		return MonteCarloResult{}, fmt.Errorf("no settled bets to resample")
	}
	if cfg.InitialBankroll <= 0 {
		return MonteCarloResult{}, fmt.Errorf("initial bankroll must be positive")
	}

	iterations := cfg.Iterations
	if iterations <= 0 {
		iterations = defaultMonteCarloIterations
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	finals := make([]float64, iterations)
	ruined := 0
	for i := 0; i < iterations; i++ {
		bankroll := cfg.InitialBankroll
		for range pls {
			bankroll += pls[rng.Intn(len(pls))]
			if bankroll <= 0 {
				bankroll = 0
				ruined++
				break
			}
		}
		finals[i] = bankroll
	}

	meanFinal := mean(finals)
	result := MonteCarloResult{
		Iterations:  iterations,
		BetsPerPath: len(pls),
		MeanFinal:   meanFinal,
		MedianFinal: quantile(finals, 0.50),
		StdFinal:    populationStddev(finals),
		MeanReturn:  (meanFinal - cfg.InitialBankroll) / cfg.InitialBankroll,
		ProbProfit:  fractionAbove(finals, cfg.InitialBankroll),
		ProbRuin:    float64(ruined) / float64(iterations),
		Percentiles: percentileBands(finals),
		Finals:      finals,
	}

	return result, nil
}

func percentileBands(values []float64) map[string]float64 {
	bands := make(map[string]float64, len(percentileBandLevels))
	for _, band := range percentileBandLevels {
		bands[band.name] = quantile(values, band.level)
	}
	return bands
}

func fractionAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}
