package stratz

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"darkseer/logger"
	"darkseer/models"
)

// NotableTiers are the league tiers worth ingesting: anything from
// semi-professional circuits up to The International.
var NotableTiers = []EnumValue{"MINOR", "MAJOR", "INTERNATIONAL", "DPC_QUALIFIER", "DPC_LEAGUE_QUALIFIER", "DPC_LEAGUE"}

// pageSize is the take parameter of paginated listing queries.
const pageSize = 100

// Patches returns every known game version.
func (c *Client) Patches(ctx context.Context) ([]models.GameVersion, error) {
	data, err := c.query(ctx, patchesQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch patches: %w", err)
	}

	var payload struct {
		Constants struct {
			GameVersions []models.RawGameVersion `json:"gameVersions"`
		} `json:"constants"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode patches: %w", err)
	}

	versions := make([]models.GameVersion, 0, len(payload.Constants.GameVersions))
	for _, v := range payload.Constants.GameVersions {
		versions = append(versions, models.GameVersion{
			PatchID:     v.ID,
			Patch:       v.Name,
			ReleaseDate: time.Unix(v.AsOfDateTime, 0).UTC(),
		})
	}
	return versions, nil
}

// Heroes returns the hero dimension.
func (c *Client) Heroes(ctx context.Context) ([]models.Hero, error) {
	data, err := c.query(ctx, heroesQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch heroes: %w", err)
	}

	var payload struct {
		Constants struct {
			Heroes []models.RawHero `json:"heroes"`
		} `json:"constants"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode heroes: %w", err)
	}

	heroes := make([]models.Hero, 0, len(payload.Constants.Heroes))
	for _, h := range payload.Constants.Heroes {
		heroes = append(heroes, models.Hero{
			HeroID:      h.ID,
			ShortName:   h.ShortName,
			DisplayName: h.DisplayName,
		})
	}
	return heroes, nil
}

// Items returns the item dimension.
func (c *Client) Items(ctx context.Context) ([]models.Item, error) {
	data, err := c.query(ctx, itemsQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}

	var payload struct {
		Constants struct {
			Items []models.RawItem `json:"items"`
		} `json:"constants"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	items := make([]models.Item, 0, len(payload.Constants.Items))
	for _, i := range payload.Constants.Items {
		items = append(items, models.Item{
			ItemID:      i.ID,
			ShortName:   i.ShortName,
			DisplayName: i.DisplayName,
		})
	}
	return items, nil
}

// Tournaments pages through leagues of the given tiers until the
// provider returns a short page.
func (c *Client) Tournaments(ctx context.Context, tiers []EnumValue) ([]models.Tournament, error) {
	if len(tiers) == 0 {
		tiers = NotableTiers
	}

	var tournaments []models.Tournament
	for skip := 0; ; skip += pageSize {
		data, err := c.query(ctx, tournamentsQuery, map[string]interface{}{
			"tiers": tiers,
			"skip":  skip,
			"take":  pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch tournaments page at %d: %w", skip, err)
		}

		var payload struct {
			Leagues []models.RawLeague `json:"leagues"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode tournaments: %w", err)
		}

		for _, l := range payload.Leagues {
			tournaments = append(tournaments, models.Tournament{
				LeagueID:   l.ID,
				LeagueName: l.DisplayName,
				StartDate:  time.Unix(l.StartDateTime, 0).UTC(),
				EndDate:    time.Unix(l.EndDateTime, 0).UTC(),
				Tier:       l.Tier,
				PrizePool:  l.PrizePool,
			})
		}
		if len(payload.Leagues) < pageSize {
			return tournaments, nil
		}
	}
}

// TournamentMatches lists the match ids played under one league.
func (c *Client) TournamentMatches(ctx context.Context, leagueID int64) ([]int64, error) {
	var ids []int64
	for skip := 0; ; skip += pageSize {
		data, err := c.query(ctx, tournamentMatchesQuery, map[string]interface{}{
			"league_id": leagueID,
			"skip":      skip,
			"take":      pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch matches of league %d: %w", leagueID, err)
		}

		var payload struct {
			League struct {
				Matches []models.RawLeagueMatch `json:"matches"`
			} `json:"league"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode league matches: %w", err)
		}

		for _, m := range payload.League.Matches {
			ids = append(ids, m.ID)
		}
		if len(payload.League.Matches) < pageSize {
			return ids, nil
		}
	}
}

// Teams resolves the given team ids into team dimension rows.
func (c *Client) Teams(ctx context.Context, teamIDs []int64) ([]models.CompetitiveTeam, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}

	data, err := c.query(ctx, teamsQuery, map[string]interface{}{"team_ids": teamIDs})
	if err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}

	var payload struct {
		Teams []models.RawTeam `json:"teams"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode teams: %w", err)
	}

	teams := make([]models.CompetitiveTeam, 0, len(payload.Teams))
	for _, t := range payload.Teams {
		team := models.CompetitiveTeam{
			TeamID:      t.ID,
			TeamName:    t.Name,
			TeamTag:     t.Tag,
			CountryCode: t.CountryCode,
		}
		if t.DateCreated != nil {
			created := time.Unix(*t.DateCreated, 0).UTC()
			team.Created = &created
		}
		teams = append(teams, team)
	}
	return teams, nil
}

// Matches fetches the full per-match trees for a batch of match ids. The
// provider silently omits matches it does not know; callers reconcile
// the returned set against the requested ids.
func (c *Client) Matches(ctx context.Context, matchIDs []int64) ([]models.RawMatch, error) {
	if len(matchIDs) == 0 {
		return nil, nil
	}

	data, err := c.query(ctx, matchesQuery, map[string]interface{}{"match_ids": matchIDs})
	if err != nil {
		return nil, fmt.Errorf("fetch matches: %w", err)
	}

	var payload struct {
		Matches []models.RawMatch `json:"matches"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode matches: %w", err)
	}
	return payload.Matches, nil
}

// Reparse asks the provider to re-run replay parsing for the given
// replay salts. The call is fire and forget: a single attempt, and the
// response body is ignored beyond transport-level success.
func (c *Client) Reparse(ctx context.Context, replaySalts []int64) error {
	if len(replaySalts) == 0 {
		return nil
	}

	_, err := c.queryOnce(ctx, reparseMutation, map[string]interface{}{"replay_salts": replaySalts})
	if err != nil {
		return fmt.Errorf("request reparse: %w", err)
	}
	logger.IncrementReparseRequest()
	c.log.WithComponent("stratz_client").WithFields(logger.Fields{
		"salt_count": len(replaySalts),
	}).Info("reparse requested")
	return nil
}
