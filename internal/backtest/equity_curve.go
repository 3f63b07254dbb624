package backtest

import (
	"strconv"
	"strings"
	"time"
)

// EquityPoint is one sample of the simulated bankroll
type EquityPoint struct {
	Time     time.Time `json:"time"`
	Value    float64   `json:"value"`
	Drawdown float64   `json:"drawdown"`
}

// EquityCurve is the bankroll time series across a replay, oldest first
type EquityCurve []EquityPoint

// Initial returns the opening bankroll, 0 when the curve is empty
func (e EquityCurve) Initial() float64 {
	if len(e) == 0 {
		return 0
	}
	return e[0].Value
}

// Final returns the closing bankroll, 0 when the curve is empty
func (e EquityCurve) Final() float64 {
	if len(e) == 0 {
		return 0
	}
	return e[len(e)-1].Value
}

// Returns yields point-to-point fractional returns
func (e EquityCurve) Returns() []float64 {
	if len(e) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(e)-1)
	for i := 1; i < len(e); i++ {
		prev := e[i-1].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (e[i].Value-prev)/prev)
	}
	return returns
}

// MaxDrawdown returns the deepest peak-to-trough fall as a fraction of the
// peak
func (e EquityCurve) MaxDrawdown() float64 {
	maxDD := 0.0
	peak := 0.0
	for _, p := range e {
		if p.Value > peak {
			peak = p.Value
		}
		if peak == 0 {
			continue
		}
		if dd := (peak - p.Value) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// ToCSV renders the curve as time,value,drawdown rows for spreadsheet import
func (e EquityCurve) ToCSV() string {
	var b strings.Builder
	b.WriteString("time,value,drawdown\n")
	for _, point := range e {
		b.WriteString(point.Time.UTC().Format(time.RFC3339))
		b.WriteString(",")
		b.WriteString(strconv.FormatFloat(point.Value, 'f', 2, 64))
		b.WriteString(",")
		b.WriteString(strconv.FormatFloat(point.Drawdown, 'f', 6, 64))
		b.WriteString("\n")
	}
	return b.String()
}
