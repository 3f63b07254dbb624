package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/repository"
)

// ResolutionService sweeps pending wagers and settles them against recorded
// box scores. Bets whose games have not been ingested yet are left alone for
// the next sweep.
type ResolutionService struct {
	bets    repository.PaperBetRepository
	parlays repository.ParlayRepository
	stats   repository.GameStatRepository
	trading *PaperTradingService
	logger  *logrus.Logger
}

// NewResolutionService creates a new resolution service
func NewResolutionService(
	bets repository.PaperBetRepository,
	parlays repository.ParlayRepository,
	stats repository.GameStatRepository,
	trading *PaperTradingService,
	logger *logrus.Logger,
) *ResolutionService {
	return &ResolutionService{
		bets:    bets,
		parlays: parlays,
		stats:   stats,
		trading: trading,
		logger:  logger,
	}
}

// ResolutionReport summarizes one settlement sweep
type ResolutionReport struct {
	BetsWon        int `json:"bets_won"`
	BetsLost       int `json:"bets_lost"`
	BetsVoided     int `json:"bets_voided"`
	BetsWaiting    int `json:"bets_waiting"`
	ParlaysWon     int `json:"parlays_won"`
	ParlaysLost    int `json:"parlays_lost"`
	ParlaysVoided  int `json:"parlays_voided"`
	ParlaysWaiting int `json:"parlays_waiting"`
	Errors         int `json:"errors"`
}

// Total returns the number of wagers settled in this sweep
func (r *ResolutionReport) Total() int {
	return r.BetsWon + r.BetsLost + r.BetsVoided + r.ParlaysWon + r.ParlaysLost + r.ParlaysVoided
}

// ResolvePending settles every pending bet and parlay whose box score has
// arrived
func (s *ResolutionService) ResolvePending(ctx context.Context) (*ResolutionReport, error) {
	report := &ResolutionReport{}

	if err := s.resolveBets(ctx, report); err != nil {
		return report, err
	}
	if err := s.resolveParlays(ctx, report); err != nil {
		return report, err
	}

	s.logger.WithFields(logrus.Fields{
		"settled":         report.Total(),
		"bets_waiting":    report.BetsWaiting,
		"parlays_waiting": report.ParlaysWaiting,
		"errors":          report.Errors,
	}).Info("Resolution sweep complete")

	return report, nil
}

func (s *ResolutionService) resolveBets(ctx context.Context, report *ResolutionReport) error {
	pending, err := s.bets.GetPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending bets: %w", err)
	}

	for _, bet := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		stat, err := s.stats.GetByPlayerAndDate(ctx, bet.PlayerID, bet.GameDate)
		if errors.Is(err, models.ErrNotFound) {
			report.BetsWaiting++
			continue
		}
		if err != nil {
			report.Errors++
			s.logger.WithField("bet_id", bet.ID).WithError(err).Warn("Failed to look up box score")
			continue
		}

		if stat.DidNotPlay() {
			if _, err := s.trading.VoidBet(ctx, bet.ID, "player did not play"); err != nil {
				report.Errors++
				s.logger.WithField("bet_id", bet.ID).WithError(err).Warn("Failed to void bet")
				continue
			}
			report.BetsVoided++
			continue
		}

		actual, ok := stat.Value(bet.StatType)
		if !ok {
			report.Errors++
			s.logger.WithFields(logrus.Fields{
				"bet_id": bet.ID,
				"stat":   bet.StatType,
			}).Warn("Bet references an untracked stat type")
			continue
		}

		resolved, err := s.trading.ResolveBet(ctx, bet.ID, actual)
		if err != nil {
			report.Errors++
			s.logger.WithField("bet_id", bet.ID).WithError(err).Warn("Failed to resolve bet")
			continue
		}

		switch resolved.Status {
		case models.BetStatusWon:
			report.BetsWon++
		case models.BetStatusLost:
			report.BetsLost++
		case models.BetStatusVoid:
			report.BetsVoided++
		}
	}

	return nil
}

// resolveParlays grades each leg, then settles the ticket. A single voided
// leg voids the whole parlay immediately; won and lost wait until every leg
// is graded, since a still-pending leg could yet void the ticket.
func (s *ResolutionService) resolveParlays(ctx context.Context, report *ResolutionReport) error {
	pending, err := s.parlays.GetPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending parlays: %w", err)
	}

	for _, parlay := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		status, err := s.gradeParlay(ctx, parlay)
		if err != nil {
			report.Errors++
			s.logger.WithField("parlay_id", parlay.ID).WithError(err).Warn("Failed to grade parlay")
			continue
		}
		if status == models.BetStatusPending {
			report.ParlaysWaiting++
			continue
		}

		if _, err := s.trading.SettleParlay(ctx, parlay.ID, status); err != nil {
			report.Errors++
			s.logger.WithField("parlay_id", parlay.ID).WithError(err).Warn("Failed to settle parlay")
			continue
		}

		switch status {
		case models.BetStatusWon:
			report.ParlaysWon++
		case models.BetStatusLost:
			report.ParlaysLost++
		case models.BetStatusVoid:
			report.ParlaysVoided++
		}
	}

	return nil
}

func (s *ResolutionService) gradeParlay(ctx context.Context, parlay *models.ParlayBet) (models.BetStatus, error) {
	anyVoid := false
	anyLost := false
	ungraded := 0

	for _, leg := range parlay.Legs {
		if leg.Status == models.BetStatusPending {
			status, err := s.gradeLeg(ctx, leg)
			if err != nil {
				return models.BetStatusPending, err
			}
			leg.Status = status
		}

		switch leg.Status {
		case models.BetStatusVoid:
			anyVoid = true
		case models.BetStatusLost:
			anyLost = true
		case models.BetStatusPending:
			ungraded++
		}
	}

	switch {
	case anyVoid:
		return models.BetStatusVoid, nil
	case ungraded > 0:
		return models.BetStatusPending, nil
	case anyLost:
		return models.BetStatusLost, nil
	default:
		return models.BetStatusWon, nil
	}
}

// gradeLeg judges one leg against its box score, recording the outcome.
// Returns pending when the box score has not arrived.
func (s *ResolutionService) gradeLeg(ctx context.Context, leg *models.ParlayLeg) (models.BetStatus, error) {
	stat, err := s.stats.GetByPlayerAndDate(ctx, leg.PlayerID, leg.GameDate)
	if errors.Is(err, models.ErrNotFound) {
		return models.BetStatusPending, nil
	}
	if err != nil {
		return models.BetStatusPending, fmt.Errorf("failed to look up box score for leg %s: %w", leg.ID, err)
	}

	actual, ok := stat.Value(leg.StatType)
	if !ok {
		return models.BetStatusPending, fmt.Errorf("leg %s references untracked stat type %s", leg.ID, leg.StatType)
	}

	var status models.BetStatus
	switch {
	case stat.DidNotPlay(), leg.IsPush(actual):
		status = models.BetStatusVoid
	case leg.WonAgainst(actual):
		status = models.BetStatusWon
	default:
		status = models.BetStatusLost
	}

	if err := s.parlays.UpdateLeg(ctx, leg.ID, status, actual); err != nil {
		return models.BetStatusPending, fmt.Errorf("failed to record leg outcome: %w", err)
	}

	return status, nil
}
