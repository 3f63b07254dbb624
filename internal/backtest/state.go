package backtest

import (
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/prop-edge/internal/models"
)

// SettledBet is one simulated wager after grading. Money stays float64 in
// the replay: the simulation never touches a real ledger.
type SettledBet struct {
	PlayerID      uuid.UUID        `json:"player_id"`
	PlayerName    string           `json:"player_name"`
	StatType      models.StatType  `json:"stat_type"`
	GameDate      time.Time        `json:"game_date"`
	Side          models.BetSide   `json:"side"`
	Line          float64          `json:"line"`
	Predicted     float64          `json:"predicted"`
	Probability   float64          `json:"probability"`
	ExpectedValue float64          `json:"expected_value"`
	Stake         float64          `json:"stake"`
	ProfitPerUnit float64          `json:"profit_per_unit"`
	Actual        float64          `json:"actual"`
	Status        models.BetStatus `json:"status"`
	ProfitLoss    float64          `json:"profit_loss"`
}

// PredictionRecord pairs an estimate with the value the player actually
// posted. The sweep scores estimator calibration from these.
type PredictionRecord struct {
	Predicted float64 `json:"predicted"`
	Actual    float64 `json:"actual"`
}

// State tracks the simulated bankroll through a replay
type State struct {
	CurrentBankroll float64
	PeakBankroll    float64
	Bets            []*SettledBet
	EquityCurve     EquityCurve
	DailyPnL        map[string]float64
}

// NewState seeds the bankroll and the opening equity point
func NewState(initialBankroll float64, start time.Time) *State {
	s := &State{
		CurrentBankroll: initialBankroll,
		PeakBankroll:    initialBankroll,
		Bets:            make([]*SettledBet, 0),
		EquityCurve:     make(EquityCurve, 0),
		DailyPnL:        make(map[string]float64),
	}
	s.RecordEquityPoint(start, initialBankroll)
	return s
}

// Settle applies a graded bet to the bankroll and the daily ledger
func (s *State) Settle(bet *SettledBet) {
	s.CurrentBankroll += bet.ProfitLoss
	if s.CurrentBankroll > s.PeakBankroll {
		s.PeakBankroll = s.CurrentBankroll
	}
	s.Bets = append(s.Bets, bet)
	s.DailyPnL[dayKey(bet.GameDate)] += bet.ProfitLoss
}

// RecordEquityPoint appends a bankroll sample carrying the drawdown at that
// moment
func (s *State) RecordEquityPoint(t time.Time, value float64) {
	drawdown := 0.0
	if value < s.PeakBankroll && s.PeakBankroll > 0 {
		drawdown = (s.PeakBankroll - value) / s.PeakBankroll
	}
	s.EquityCurve = append(s.EquityCurve, EquityPoint{
		Time:     t,
		Value:    value,
		Drawdown: drawdown,
	})
}

// Drawdown returns the current fall from the bankroll peak as a fraction
func (s *State) Drawdown() float64 {
	if s.PeakBankroll <= 0 {
		return 0
	}
	drawdown := (s.PeakBankroll - s.CurrentBankroll) / s.PeakBankroll
	if drawdown < 0 {
		return 0
	}
	return drawdown
}

// dayKey buckets a game date for the daily PnL ledger. String keys sidestep
// the location and monotonic-clock pitfalls of time.Time map keys.
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
