package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/prop-edge/internal/models"
)

const (
	prizePicksSourceName = "prizepicks"

	// NBA league ID on the PrizePicks board.
	prizePicksNBALeagueID = "7"
)

// PrizePicksClient implements LinesProvider against the PrizePicks
// projections API
type PrizePicksClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	enabled    bool
	logger     *logrus.Logger
}

// projectionsResponse is the JSON:API envelope: projections in data,
// player records in included, joined through relationships.
type projectionsResponse struct {
	Data     []projectionResource `json:"data"`
	Included []includedResource   `json:"included"`
}

type projectionResource struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		LineScore float64 `json:"line_score"`
		StatType  string  `json:"stat_type"`
		StartTime string  `json:"start_time"`
	} `json:"attributes"`
	Relationships struct {
		NewPlayer struct {
			Data struct {
				ID   string `json:"id"`
				Type string `json:"type"`
			} `json:"data"`
		} `json:"new_player"`
	} `json:"relationships"`
}

type includedResource struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Name     string `json:"name"`
		Team     string `json:"team"`
		Position string `json:"position"`
	} `json:"attributes"`
}

// prizePicksStatTypes maps board stat names onto tracked statistics. Board
// entries outside this map (fantasy score, combined props) are skipped.
var prizePicksStatTypes = map[string]models.StatType{
	"Points":     models.StatTypePoints,
	"Rebounds":   models.StatTypeRebounds,
	"Assists":    models.StatTypeAssists,
	"3-PT Made":  models.StatTypeThrees,
}

// NewPrizePicksClient creates a new PrizePicks projections client
func NewPrizePicksClient(httpClient *RateLimitedHTTPClient, baseURL string, enabled bool, logger *logrus.Logger) *PrizePicksClient {
	if baseURL == "" {
		baseURL = "https://api.prizepicks.com"
	}
	return &PrizePicksClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		enabled:    enabled,
		logger:     logger,
	}
}

// Name returns the name of the data source
func (c *PrizePicksClient) Name() string {
	return prizePicksSourceName
}

// IsEnabled returns whether this data source is currently enabled
func (c *PrizePicksClient) IsEnabled() bool {
	return c.enabled
}

// FetchLines retrieves the current NBA prop board
func (c *PrizePicksClient) FetchLines(ctx context.Context) ([]LineEntry, error) {
	if !c.enabled {
		return nil, NewDataSourceError(prizePicksSourceName, ErrCodeDisabled, "data source is disabled", nil)
	}

	url := fmt.Sprintf("%s/projections?league_id=%s&per_page=250&single_stat=true",
		c.baseURL, prizePicksNBALeagueID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewDataSourceError(prizePicksSourceName, ErrCodeConnectionFailed, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewDataSourceError(prizePicksSourceName, ErrCodeConnectionFailed, "failed to fetch projections", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, NewDataSourceError(prizePicksSourceName, ErrCodeRateLimited, "rate limit exceeded", nil)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewDataSourceError(prizePicksSourceName, ErrCodeInvalidResponse,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var payload projectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, NewDataSourceError(prizePicksSourceName, ErrCodeParseError, "failed to parse response", err)
	}

	entries := c.joinProjections(payload)

	c.logger.WithFields(logrus.Fields{
		"source":      prizePicksSourceName,
		"projections": len(payload.Data),
		"lines":       len(entries),
	}).Debug("Fetched prop board")

	return entries, nil
}

// joinProjections resolves each projection's player relationship against the
// included records and normalizes the stat names. Projections whose player
// is missing from included or whose stat is untracked are dropped.
func (c *PrizePicksClient) joinProjections(payload projectionsResponse) []LineEntry {
	players := make(map[string]includedResource, len(payload.Included))
	for _, inc := range payload.Included {
		if inc.Type == "new_player" {
			players[inc.ID] = inc
		}
	}

	var entries []LineEntry
	for _, proj := range payload.Data {
		statType, tracked := prizePicksStatTypes[proj.Attributes.StatType]
		if !tracked {
			continue
		}

		player, ok := players[proj.Relationships.NewPlayer.Data.ID]
		if !ok {
			c.logger.WithFields(logrus.Fields{
				"source":        prizePicksSourceName,
				"projection_id": proj.ID,
			}).Debug("Projection references unknown player; skipping")
			continue
		}

		gameDate, err := parseStartTime(proj.Attributes.StartTime)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"source":        prizePicksSourceName,
				"projection_id": proj.ID,
				"start_time":    proj.Attributes.StartTime,
			}).Debug("Projection has unparseable start time; skipping")
			continue
		}

		entries = append(entries, LineEntry{
			ExternalPlayerID: proj.Relationships.NewPlayer.Data.ID,
			PlayerName:       player.Attributes.Name,
			Team:             player.Attributes.Team,
			Position:         player.Attributes.Position,
			StatType:         statType,
			Line:             proj.Attributes.LineScore,
			GameDate:         gameDate,
			OverOdds:         models.DefaultAmericanOdds,
			UnderOdds:        models.DefaultAmericanOdds,
			Source:           prizePicksSourceName,
		})
	}

	return entries
}

// parseStartTime converts the projection start time into a UTC game date
func parseStartTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC), nil
}
