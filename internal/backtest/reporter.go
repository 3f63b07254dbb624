package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
)

// FormatResult renders a replay result for terminal output.
func FormatResult(res *Result) string {
	m := res.Metrics
	var b strings.Builder
	b.WriteString("Backtest Report\n")
	b.WriteString("===============\n")
	b.WriteString(fmt.Sprintf("Period: %s to %s (%d trading days)\n",
		m.StartDate.Format("2006-01-02"), m.EndDate.Format("2006-01-02"), m.TradingDays))
	b.WriteString(fmt.Sprintf("Final Bankroll: %.2f\n", res.State.CurrentBankroll))
	b.WriteString(fmt.Sprintf("Total Return: %.2f%%\n", m.TotalReturn*100))
	b.WriteString(fmt.Sprintf("CAGR: %.2f%%\n", m.CAGR*100))
	b.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", m.MaxDrawdown*100))
	b.WriteString(fmt.Sprintf("Sharpe Ratio: %.2f\n", m.SharpeRatio))
	b.WriteString(fmt.Sprintf("Sortino Ratio: %.2f\n", m.SortinoRatio))
	b.WriteString(fmt.Sprintf("VaR 95/99: %.2f%% / %.2f%%\n", m.VaR95*100, m.VaR99*100))
	b.WriteString(fmt.Sprintf("Bets: %d (%d won, %d lost, %d void)\n",
		m.TotalBets, m.WinningBets, m.LosingBets, m.VoidBets))
	b.WriteString(fmt.Sprintf("Win Rate: %.2f%%\n", m.WinRate*100))
	b.WriteString(fmt.Sprintf("Profit Factor: %.2f\n", m.ProfitFactor))
	b.WriteString(fmt.Sprintf("Expectancy: %.2f\n", m.Expectancy))
	b.WriteString(fmt.Sprintf("Avg Win / Avg Loss: %.2f / %.2f\n", m.AverageWin, m.AverageLoss))
	b.WriteString(fmt.Sprintf("Largest Win / Loss: %.2f / %.2f\n", m.LargestWin, m.LargestLoss))
	b.WriteString(fmt.Sprintf("Prediction MAE: %.2f (%d predictions)\n", res.MAE(), len(res.Predictions)))
	return b.String()
}

// FormatMonteCarlo renders a Monte Carlo simulation for terminal output.
func FormatMonteCarlo(mc MonteCarloResult) string {
	var b strings.Builder
	b.WriteString("Monte Carlo Simulation\n")
	b.WriteString("======================\n")
	b.WriteString(fmt.Sprintf("Paths: %d (%d bets per path)\n", mc.Iterations, mc.BetsPerPath))
	b.WriteString(fmt.Sprintf("Mean Final Bankroll: %.2f\n", mc.MeanFinal))
	b.WriteString(fmt.Sprintf("Median Final Bankroll: %.2f\n", mc.MedianFinal))
	b.WriteString(fmt.Sprintf("Std Dev: %.2f\n", mc.StdFinal))
	b.WriteString(fmt.Sprintf("Mean Return: %.2f%%\n", mc.MeanReturn*100))
	b.WriteString(fmt.Sprintf("Probability of Profit: %.1f%%\n", mc.ProbProfit*100))
	b.WriteString(fmt.Sprintf("Probability of Ruin: %.1f%%\n", mc.ProbRuin*100))
	b.WriteString("Percentile Bands:\n")
	for _, band := range percentileBandLevels {
		b.WriteString(fmt.Sprintf("  %s: %.2f\n", band.name, mc.Percentiles[band.name]))
	}
	return b.String()
}

// FormatSweep renders the ranked parameter sweep table for terminal output.
func FormatSweep(rep *SweepReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Parameter Sweep (%d folds)\n", rep.Folds))
	b.WriteString("==========================\n")

	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tMETHOD\tWINDOW\tDECAY\tROI\tDRAWDOWN\tMAE\tBETS\tSCORE")
	for i, r := range rep.Results {
		decay := "-"
		if r.Decay > 0 {
			decay = fmt.Sprintf("%.2f", r.Decay)
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%.2f%%\t%.2f%%\t%.2f\t%d\t%.3f\n",
			i+1, r.Method, r.Window, decay, r.ROI*100, r.MaxDrawdown*100, r.MAE, r.Bets, r.Score)
	}
	w.Flush()

	if best, ok := rep.Best(); ok {
		b.WriteString(fmt.Sprintf("\nBest: method=%s window=%d", best.Method, best.Window))
		if best.Decay > 0 {
			b.WriteString(fmt.Sprintf(" decay=%.2f", best.Decay))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// WriteEquityCurve exports the equity curve as CSV for spreadsheets.
func WriteEquityCurve(path string, curve EquityCurve) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(curve.ToCSV()), 0o644); err != nil {
		return fmt.Errorf("failed to write equity curve: %w", err)
	}
	return nil
}
