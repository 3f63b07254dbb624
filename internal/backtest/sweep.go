package backtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/yourusername/prop-edge/internal/forecast"
	"github.com/yourusername/prop-edge/internal/metrics"
)

const defaultSweepFolds = 3

// Composite score weights. Return dominates, drawdown and calibration
// keep a lucky high-variance candidate from winning outright.
const (
	sweepROIWeight      = 0.5
	sweepDrawdownWeight = 0.3
	sweepMAEWeight      = 0.2
)

// defaultDecaySweep covers the useful weighting range when the config
// carries no decay axis of its own.
var defaultDecaySweep = []float64{0.8, 0.9, 0.95}

// SweepConfig defines the parameter grid for a sweep run.
type SweepConfig struct {
	Methods []forecast.Method
	Windows []int
	Decays  []float64
	// Folds splits the date range into consecutive sub-periods; every
	// candidate must hold up across all of them, not just one lucky run.
	Folds int
}

// DefaultSweepConfig derives the grid from the backtest config, falling
// back to the configured single values when no sweep axis is set.
func DefaultSweepConfig(cfg Config) SweepConfig {
	windows := cfg.WindowSweep
	if len(windows) == 0 {
		windows = []int{cfg.Window}
	}
	decays := cfg.DecaySweep
	if len(decays) == 0 {
		if cfg.Decay > 0 && cfg.Decay < 1 {
			decays = []float64{cfg.Decay}
		} else {
			decays = defaultDecaySweep
		}
	}
	return SweepConfig{
		Methods: []forecast.Method{forecast.MethodSimple, forecast.MethodWeighted},
		Windows: windows,
		Decays:  decays,
		Folds:   defaultSweepFolds,
	}
}

// SweepResult holds one candidate's averaged performance across folds.
type SweepResult struct {
	Method      forecast.Method `json:"method"`
	Window      int             `json:"window"`
	Decay       float64         `json:"decay,omitempty"`
	ROI         float64         `json:"roi"`
	MaxDrawdown float64         `json:"max_drawdown"`
	MAE         float64         `json:"mae"`
	Bets        int             `json:"bets"`
	Predictions int             `json:"predictions"`
	Score       float64         `json:"score"`
}

// SweepReport ranks all evaluated candidates, best first.
type SweepReport struct {
	Results []SweepResult `json:"results"`
	Folds   int           `json:"folds"`
}

// Best returns the top-ranked candidate, if any.
func (r *SweepReport) Best() (SweepResult, bool) {
	if r == nil || len(r.Results) == 0 {
		return SweepResult{}, false
	}
	return r.Results[0], true
}

// RunParamSweep replays every method/window/decay combination across the
// engine's date range, split into consecutive folds, and ranks candidates
// by a composite of return, drawdown, and prediction error.
func RunParamSweep(ctx context.Context, engine *Engine, cfg SweepConfig) (*SweepReport, error) {
	started := time.Now()
	report, err := runParamSweep(ctx, engine, cfg)
	metrics.RecordBacktestDuration(time.Since(started).Seconds())
	if err != nil {
		metrics.RecordBacktestRun("param_sweep", "failure")
		return nil, err
	}
	metrics.RecordBacktestRun("param_sweep", "success")
	recordSweepMetrics(report)
	return report, nil
}

type sweepCandidate struct {
	Method forecast.Method
	Window int
	Decay  float64
}

type foldRange struct {
	start time.Time
	end   time.Time
}

func runParamSweep(ctx context.Context, engine *Engine, cfg SweepConfig) (*SweepReport, error) {
	folds := cfg.Folds
	if folds <= 0 {
		folds = defaultSweepFolds
	}

	grid, err := buildGrid(cfg)
	if err != nil {
		return nil, err
	}
	ranges, err := foldRanges(engine.Config().StartDate, engine.Config().EndDate, folds)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, 0, len(grid))
	for _, cand := range grid {
		res, err := evaluateCandidate(ctx, engine, cand, ranges)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	scoreResults(results)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return &SweepReport{Results: results, Folds: folds}, nil
}

// buildGrid expands the axes into candidates. The simple mean ignores
// decay, so that axis collapses to a single candidate per window.
func buildGrid(cfg SweepConfig) ([]sweepCandidate, error) {
	if len(cfg.Methods) == 0 || len(cfg.Windows) == 0 {
		return nil, fmt.Errorf("sweep grid needs at least one method and one window")
	}
	var grid []sweepCandidate
	for _, method := range cfg.Methods {
		if !method.Valid() {
			return nil, fmt.Errorf("unknown method %q", method)
		}
		for _, window := range cfg.Windows {
			if window <= 0 {
				return nil, fmt.Errorf("sweep window must be positive, got %d", window)
			}
			if method == forecast.MethodSimple {
				grid = append(grid, sweepCandidate{Method: method, Window: window})
				continue
			}
			if len(cfg.Decays) == 0 {
				return nil, fmt.Errorf("weighted sweep needs at least one decay")
			}
			for _, decay := range cfg.Decays {
				if decay <= 0 || decay >= 1 {
					return nil, fmt.Errorf("sweep decay must sit inside (0, 1), got %v", decay)
				}
				grid = append(grid, sweepCandidate{Method: method, Window: window, Decay: decay})
			}
		}
	}
	return grid, nil
}

// foldRanges cuts the inclusive [start, end] date range into consecutive
// whole-day folds; the last fold absorbs any remainder. Replay treats both
// bounds as inclusive and dates are midnight-normalized, so each game day
// lands in exactly one fold.
func foldRanges(start, end time.Time, folds int) ([]foldRange, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("sweep range is empty")
	}
	totalDays := int(end.Sub(start).Hours()/24) + 1
	daysPerFold := totalDays / folds
	if daysPerFold < 2 {
		return nil, fmt.Errorf("sweep range of %d days is too short for %d folds", totalDays, folds)
	}
	ranges := make([]foldRange, 0, folds)
	for i := 0; i < folds; i++ {
		foldStart := start.AddDate(0, 0, i*daysPerFold)
		foldEnd := start.AddDate(0, 0, (i+1)*daysPerFold-1)
		if i == folds-1 {
			foldEnd = end
		}
		ranges = append(ranges, foldRange{start: foldStart, end: foldEnd})
	}
	return ranges, nil
}

func evaluateCandidate(ctx context.Context, engine *Engine, cand sweepCandidate, ranges []foldRange) (SweepResult, error) {
	var (
		roiSum, ddSum, absErrSum float64
		bets, predictions        int
	)
	for _, fold := range ranges {
		res, err := engine.Replay(ctx, ReplayParams{
			Start:  fold.start,
			End:    fold.end,
			Window: cand.Window,
			Method: cand.Method,
			Decay:  cand.Decay,
		})
		if err != nil {
			return SweepResult{}, fmt.Errorf("failed to replay fold %s to %s: %w",
				fold.start.Format("2006-01-02"), fold.end.Format("2006-01-02"), err)
		}
		roiSum += res.Metrics.TotalReturn
		ddSum += res.Metrics.MaxDrawdown
		for _, rec := range res.Predictions {
			absErrSum += math.Abs(rec.Predicted - rec.Actual)
		}
		bets += len(res.State.Bets)
		predictions += len(res.Predictions)
	}

	foldCount := float64(len(ranges))
	result := SweepResult{
		Method:      cand.Method,
		Window:      cand.Window,
		Decay:       cand.Decay,
		ROI:         roiSum / foldCount,
		MaxDrawdown: ddSum / foldCount,
		Bets:        bets,
		Predictions: predictions,
	}
	if predictions > 0 {
		result.MAE = absErrSum / float64(predictions)
	}
	return result, nil
}

// scoreResults assigns each candidate a composite score. A candidate that
// never produced a prediction has nothing to rank on and scores zero.
func scoreResults(results []SweepResult) {
	worstMAE := 0.0
	for _, r := range results {
		if r.MAE > worstMAE {
			worstMAE = r.MAE
		}
	}
	for i := range results {
		if results[i].Predictions == 0 {
			results[i].Score = 0
			continue
		}
		roiScore := normalize(results[i].ROI, -0.5, 1.0)
		ddScore := 1 - normalize(results[i].MaxDrawdown, 0, 0.5)
		maeScore := 1.0
		if worstMAE > 0 {
			maeScore = 1 - results[i].MAE/worstMAE
		}
		results[i].Score = sweepROIWeight*roiScore + sweepDrawdownWeight*ddScore + sweepMAEWeight*maeScore
	}
}

// normalize maps value into [0, 1] across the given range, clamping
// out-of-range values to the edges.
func normalize(value, min, max float64) float64 {
	if max <= min {
		return 0
	}
	n := (value - min) / (max - min)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

func recordSweepMetrics(report *SweepReport) {
	best, ok := report.Best()
	if !ok {
		return
	}
	metrics.RecordBacktestROI("param_sweep", best.ROI*100)

	type pairKey struct {
		method forecast.Method
		window int
	}
	bestByPair := make(map[pairKey]float64)
	for _, r := range report.Results {
		key := pairKey{method: r.Method, window: r.Window}
		if cur, seen := bestByPair[key]; !seen || r.ROI > cur {
			bestByPair[key] = r.ROI
		}
	}
	for key, roi := range bestByPair {
		metrics.UpdateParamSweepBestROI(string(key.method), strconv.Itoa(key.window), roi*100)
	}
}
