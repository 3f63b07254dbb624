package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/datasource"
	"github.com/yourusername/prop-edge/internal/models"
)

// Normalizer converts provider payloads into the internal domain models
type Normalizer struct {
	logger *logrus.Logger
}

// NewNormalizer creates a new normalizer
func NewNormalizer(logger *logrus.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// NormalizeGameLog converts game log entries into GameStat rows. Entries must
// arrive oldest first: rest days are the calendar gap to the previous game
// minus one, so consecutive nights yield zero and mark a back-to-back. The
// first entry has no previous game and carries a nil DaysRest.
func (n *Normalizer) NormalizeGameLog(playerID uuid.UUID, entries []datasource.GameLogEntry) []*models.GameStat {
	stats := make([]*models.GameStat, 0, len(entries))

	var prevDate time.Time
	for i, entry := range entries {
		gameDate := toUTCDate(entry.GameDate)

		var daysRest *int
		if i > 0 {
			rest := calendarDaysBetween(prevDate, gameDate) - 1
			if rest < 0 {
				rest = 0
			}
			daysRest = &rest
		}

		stats = append(stats, &models.GameStat{
			ID:           uuid.New(),
			PlayerID:     playerID,
			GameDate:     gameDate,
			Opponent:     normalizeTeamCode(entry.Opponent),
			IsHome:       entry.IsHome,
			Minutes:      entry.Minutes,
			Points:       entry.Points,
			Rebounds:     entry.Rebounds,
			Assists:      entry.Assists,
			Threes:       entry.Threes,
			DaysRest:     daysRest,
			IsBackToBack: daysRest != nil && *daysRest == 0,
			CreatedAt:    time.Now().UTC(),
		})

		prevDate = gameDate
	}

	return stats
}

// NormalizePlayer builds a Player from a board line entry. The caller is
// expected to upsert it keyed on the external ID.
func (n *Normalizer) NormalizePlayer(entry datasource.LineEntry) *models.Player {
	now := time.Now().UTC()
	return &models.Player{
		ID:         uuid.New(),
		ExternalID: strings.TrimSpace(entry.ExternalPlayerID),
		Name:       collapseWhitespace(entry.PlayerName),
		Team:       normalizeTeamCode(entry.Team),
		Position:   strings.ToUpper(strings.TrimSpace(entry.Position)),
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NormalizeLine converts a fetched board entry into a PropLine. Missing odds
// fall back to the standard board juice.
func (n *Normalizer) NormalizeLine(playerID uuid.UUID, entry datasource.LineEntry) *models.PropLine {
	overOdds := entry.OverOdds
	if overOdds == 0 {
		overOdds = models.DefaultAmericanOdds
	}
	underOdds := entry.UnderOdds
	if underOdds == 0 {
		underOdds = models.DefaultAmericanOdds
	}

	return &models.PropLine{
		ID:        uuid.New(),
		PlayerID:  playerID,
		StatType:  entry.StatType,
		Line:      entry.Line,
		Source:    entry.Source,
		GameDate:  toUTCDate(entry.GameDate),
		OverOdds:  overOdds,
		UnderOdds: underOdds,
		FetchedAt: time.Now().UTC(),
	}
}

// NormalizeLineUpdate converts a streamed line move into a PropLine
func (n *Normalizer) NormalizeLineUpdate(playerID uuid.UUID, update datasource.LineUpdate, source string) *models.PropLine {
	fetchedAt := update.Timestamp
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	return &models.PropLine{
		ID:        uuid.New(),
		PlayerID:  playerID,
		StatType:  update.StatType,
		Line:      update.Line,
		Source:    source,
		GameDate:  toUTCDate(update.GameDate),
		OverOdds:  models.DefaultAmericanOdds,
		UnderOdds: models.DefaultAmericanOdds,
		FetchedAt: fetchedAt.UTC(),
	}
}

// toUTCDate truncates a timestamp to its UTC calendar date
func toUTCDate(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// calendarDaysBetween counts whole calendar days from a to b. Both arguments
// must already be UTC midnights.
func calendarDaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// normalizeTeamCode upper-cases and trims a team abbreviation
func normalizeTeamCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// collapseWhitespace trims a name and collapses internal runs of whitespace
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
