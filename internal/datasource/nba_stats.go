package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	nbaStatsSourceName = "nba_stats"

	// Layout of the GAME_DATE column, e.g. "APR 09, 2026".
	nbaGameDateLayout = "Jan 02, 2006"
)

// NBAStatsClient implements StatsProvider against the stats.nba.com API
type NBAStatsClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	season     string
	enabled    bool
	logger     *logrus.Logger
}

// gameLogResponse is the resultSets envelope every stats.nba.com endpoint
// wraps its data in: column names in headers, values in parallel rowSet rows.
type gameLogResponse struct {
	ResultSets []struct {
		Name    string            `json:"name"`
		Headers []string          `json:"headers"`
		RowSet  [][]json.RawMessage `json:"rowSet"`
	} `json:"resultSets"`
}

// NewNBAStatsClient creates a new NBA stats API client
func NewNBAStatsClient(httpClient *RateLimitedHTTPClient, baseURL string, enabled bool, logger *logrus.Logger) *NBAStatsClient {
	if baseURL == "" {
		baseURL = "https://stats.nba.com/stats"
	}
	return &NBAStatsClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		enabled:    enabled,
		logger:     logger,
	}
}

// Name returns the name of the data source
func (c *NBAStatsClient) Name() string {
	return nbaStatsSourceName
}

// IsEnabled returns whether this data source is currently enabled
func (c *NBAStatsClient) IsEnabled() bool {
	return c.enabled
}

// FetchGameLog retrieves a player's season game log, oldest game first
func (c *NBAStatsClient) FetchGameLog(ctx context.Context, externalPlayerID string, season string) ([]GameLogEntry, error) {
	if !c.enabled {
		return nil, NewDataSourceError(nbaStatsSourceName, ErrCodeDisabled, "data source is disabled", nil)
	}

	url := fmt.Sprintf("%s/playergamelog?PlayerID=%s&Season=%s&SeasonType=Regular+Season",
		c.baseURL, externalPlayerID, season)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewDataSourceError(nbaStatsSourceName, ErrCodeConnectionFailed, "failed to create request", err)
	}

	// stats.nba.com rejects requests without browser-looking headers.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Referer", "https://www.nba.com/")
	req.Header.Set("Origin", "https://www.nba.com")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-nba-stats-origin", "stats")
	req.Header.Set("x-nba-stats-token", "true")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewDataSourceError(nbaStatsSourceName, ErrCodeConnectionFailed, "failed to fetch game log", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, NewDataSourceError(nbaStatsSourceName, ErrCodeRateLimited, "rate limit exceeded", nil)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, NewDataSourceError(nbaStatsSourceName, ErrCodeNotFound, "player not found", nil)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewDataSourceError(nbaStatsSourceName, ErrCodeInvalidResponse,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var payload gameLogResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, NewDataSourceError(nbaStatsSourceName, ErrCodeParseError, "failed to parse response", err)
	}

	entries, err := parseGameLog(payload)
	if err != nil {
		return nil, NewDataSourceError(nbaStatsSourceName, ErrCodeParseError, "failed to parse game log", err)
	}

	c.logger.WithFields(logrus.Fields{
		"source":    nbaStatsSourceName,
		"player_id": externalPlayerID,
		"season":    season,
		"games":     len(entries),
	}).Debug("Fetched game log")

	return entries, nil
}

// parseGameLog converts the headers/rowSet pair into game entries and sorts
// them oldest first. The API serves rows newest first.
func parseGameLog(payload gameLogResponse) ([]GameLogEntry, error) {
	if len(payload.ResultSets) == 0 {
		return nil, fmt.Errorf("response contains no result sets")
	}

	set := payload.ResultSets[0]
	col := make(map[string]int, len(set.Headers))
	for i, h := range set.Headers {
		col[h] = i
	}
	for _, required := range []string{"GAME_DATE", "MATCHUP", "MIN", "PTS", "REB", "AST", "FG3M"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("result set missing column %q", required)
		}
	}

	entries := make([]GameLogEntry, 0, len(set.RowSet))
	for _, row := range set.RowSet {
		if len(row) != len(set.Headers) {
			return nil, fmt.Errorf("row has %d values, expected %d", len(row), len(set.Headers))
		}

		dateStr, err := stringCell(row[col["GAME_DATE"]])
		if err != nil {
			return nil, fmt.Errorf("GAME_DATE: %w", err)
		}
		gameDate, err := time.Parse(nbaGameDateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("GAME_DATE %q: %w", dateStr, err)
		}

		matchup, err := stringCell(row[col["MATCHUP"]])
		if err != nil {
			return nil, fmt.Errorf("MATCHUP: %w", err)
		}
		opponent, isHome, err := ParseMatchup(matchup)
		if err != nil {
			return nil, err
		}

		entry := GameLogEntry{
			GameDate: gameDate.UTC(),
			Opponent: opponent,
			IsHome:   isHome,
		}
		if entry.Minutes, err = floatCell(row[col["MIN"]]); err != nil {
			return nil, fmt.Errorf("MIN: %w", err)
		}
		if entry.Points, err = floatCell(row[col["PTS"]]); err != nil {
			return nil, fmt.Errorf("PTS: %w", err)
		}
		if entry.Rebounds, err = floatCell(row[col["REB"]]); err != nil {
			return nil, fmt.Errorf("REB: %w", err)
		}
		if entry.Assists, err = floatCell(row[col["AST"]]); err != nil {
			return nil, fmt.Errorf("AST: %w", err)
		}
		if entry.Threes, err = floatCell(row[col["FG3M"]]); err != nil {
			return nil, fmt.Errorf("FG3M: %w", err)
		}

		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].GameDate.Before(entries[j].GameDate)
	})

	return entries, nil
}

// ParseMatchup splits a MATCHUP cell into opponent and home flag.
// "BOS vs. NYK" is a Boston home game; "BOS @ NYK" is on the road.
func ParseMatchup(matchup string) (opponent string, isHome bool, err error) {
	if idx := strings.Index(matchup, "vs."); idx >= 0 {
		return strings.TrimSpace(matchup[idx+len("vs."):]), true, nil
	}
	if idx := strings.Index(matchup, "@"); idx >= 0 {
		return strings.TrimSpace(matchup[idx+1:]), false, nil
	}
	return "", false, fmt.Errorf("unrecognized matchup format %q", matchup)
}

// stringCell decodes a JSON cell expected to hold a string
func stringCell(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("expected string cell: %w", err)
	}
	return s, nil
}

// floatCell decodes a JSON cell expected to hold a number; null counts as 0
func floatCell(raw json.RawMessage) (float64, error) {
	if string(raw) == "null" {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("expected numeric cell: %w", err)
	}
	return f, nil
}
