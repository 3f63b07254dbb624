package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/prop-edge/internal/datasource"
	"github.com/yourusername/prop-edge/internal/models"
)

func TestNormalizeGameLogRestDays(t *testing.T) {
	n := NewNormalizer(testLogger())
	playerID := uuid.New()

	entries := []datasource.GameLogEntry{
		{GameDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Opponent: "nyk", IsHome: true, Minutes: 34, Points: 25, Rebounds: 6, Assists: 8, Threes: 3},
		{GameDate: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Opponent: "BKN", Minutes: 31, Points: 19},
		{GameDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Opponent: "MIA", Minutes: 36, Points: 31},
		{GameDate: time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), Opponent: "ORL", Minutes: 0},
	}

	stats := n.NormalizeGameLog(playerID, entries)
	require.Len(t, stats, 4)

	// The season opener has no previous game to rest from.
	assert.Nil(t, stats[0].DaysRest)
	assert.False(t, stats[0].IsBackToBack)
	assert.Equal(t, "NYK", stats[0].Opponent)
	assert.True(t, stats[0].IsHome)

	// Jan 1 then Jan 2 is a back-to-back: zero full days off.
	require.NotNil(t, stats[1].DaysRest)
	assert.Equal(t, 0, *stats[1].DaysRest)
	assert.True(t, stats[1].IsBackToBack)

	// Jan 2 then Jan 5 leaves two full days off.
	require.NotNil(t, stats[2].DaysRest)
	assert.Equal(t, 2, *stats[2].DaysRest)
	assert.False(t, stats[2].IsBackToBack)

	require.NotNil(t, stats[3].DaysRest)
	assert.Equal(t, 1, *stats[3].DaysRest)

	for _, stat := range stats {
		assert.Equal(t, playerID, stat.PlayerID)
	}
}

func TestNormalizeGameLogTruncatesToDate(t *testing.T) {
	n := NewNormalizer(testLogger())

	// A tip-off timestamp in EST still lands on its calendar date.
	est := time.FixedZone("EST", -5*60*60)
	entries := []datasource.GameLogEntry{
		{GameDate: time.Date(2026, 1, 15, 19, 30, 0, 0, est), Minutes: 30, Points: 20},
	}

	stats := n.NormalizeGameLog(uuid.New(), entries)
	require.Len(t, stats, 1)
	assert.Equal(t, time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC), stats[0].GameDate)
}

func TestNormalizePlayer(t *testing.T) {
	n := NewNormalizer(testLogger())

	player := n.NormalizePlayer(datasource.LineEntry{
		ExternalPlayerID: " 2544 ",
		PlayerName:       "  LeBron   James ",
		Team:             "lal",
		Position:         "f",
	})

	assert.Equal(t, "2544", player.ExternalID)
	assert.Equal(t, "LeBron James", player.Name)
	assert.Equal(t, "LAL", player.Team)
	assert.Equal(t, "F", player.Position)
	assert.True(t, player.Active)
}

func TestNormalizeLineDefaultOdds(t *testing.T) {
	n := NewNormalizer(testLogger())
	playerID := uuid.New()

	line := n.NormalizeLine(playerID, datasource.LineEntry{
		StatType: models.StatTypePoints,
		Line:     25.5,
		GameDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Source:   "prizepicks",
	})

	assert.Equal(t, playerID, line.PlayerID)
	assert.Equal(t, models.DefaultAmericanOdds, line.OverOdds)
	assert.Equal(t, models.DefaultAmericanOdds, line.UnderOdds)

	quoted := n.NormalizeLine(playerID, datasource.LineEntry{
		StatType: models.StatTypePoints,
		Line:     25.5,
		GameDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Source:   "prizepicks",
		OverOdds: -115,
	})
	assert.Equal(t, -115, quoted.OverOdds)
	assert.Equal(t, models.DefaultAmericanOdds, quoted.UnderOdds)
}

func TestNormalizeLineUpdate(t *testing.T) {
	n := NewNormalizer(testLogger())
	playerID := uuid.New()

	moved := time.Date(2026, 2, 1, 14, 3, 0, 0, time.UTC)
	line := n.NormalizeLineUpdate(playerID, datasource.LineUpdate{
		StatType:  models.StatTypeRebounds,
		Line:      8.5,
		GameDate:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Timestamp: moved,
	}, "stream")

	assert.Equal(t, "stream", line.Source)
	assert.Equal(t, 8.5, line.Line)
	assert.Equal(t, moved, line.FetchedAt)

	// An update without a timestamp is stamped on arrival.
	unstamped := n.NormalizeLineUpdate(playerID, datasource.LineUpdate{
		StatType: models.StatTypeRebounds,
		Line:     9.0,
		GameDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}, "stream")
	assert.WithinDuration(t, time.Now().UTC(), unstamped.FetchedAt, time.Second)
}
