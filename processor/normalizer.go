package processor

import (
	"fmt"
	"time"

	"darkseer/models"
)

// IncompleteDataError marks a raw match whose payload is missing a
// section normalization depends on. The match is staged for reparse
// instead of being written.
type IncompleteDataError struct {
	MatchID int64
	Section string
}

func (e *IncompleteDataError) Error() string {
	return fmt.Sprintf("match %d: incomplete payload, missing %s", e.MatchID, e.Section)
}

// Normalizer turns one raw provider match tree into flat relational
// records. It holds no per-match state, so a single instance is safe to
// share across workers.
type Normalizer struct {
	targets *models.TargetTable
}

func NewNormalizer() *Normalizer {
	return &Normalizer{targets: models.DefaultTargetTable}
}

// NormalizeMatch flattens one raw match. A missing required section
// yields an IncompleteDataError; an enum code outside the lookup tables
// yields an UnknownEnumValueError. Both are per-match failures and never
// affect the rest of a batch.
func (n *Normalizer) NormalizeMatch(raw models.RawMatch) (*models.NormalizedMatch, error) {
	if err := validateRequired(raw); err != nil {
		return nil, err
	}

	region, err := models.RegionName(*raw.RegionID)
	if err != nil {
		return nil, fmt.Errorf("match %d: %w", raw.ID, err)
	}
	lobby, err := models.LobbyTypeName(*raw.LobbyType)
	if err != nil {
		return nil, fmt.Errorf("match %d: %w", raw.ID, err)
	}
	mode, err := models.GameModeName(*raw.GameMode)
	if err != nil {
		return nil, fmt.Errorf("match %d: %w", raw.ID, err)
	}

	winner := "dire"
	if *raw.DidRadiantWin {
		winner = "radiant"
	}

	out := &models.NormalizedMatch{
		Match: models.Match{
			MatchID:         raw.ID,
			ReplaySalt:      *raw.ReplaySalt,
			PatchID:         *raw.GameVersionID,
			LeagueID:        raw.LeagueID,
			SeriesID:        raw.SeriesID,
			RadiantTeamID:   raw.RadiantTeamID,
			DireTeamID:      raw.DireTeamID,
			StartTime:       time.Unix(*raw.StartDateTime, 0).UTC(),
			IsRanked:        *raw.LobbyType == 7,
			WinningFaction:  winner,
			DurationSeconds: *raw.DurationSeconds,
			Region:          region,
			LobbyType:       lobby,
			GameMode:        mode,
		},
	}

	if raw.League != nil {
		out.Tournament = &models.Tournament{
			LeagueID:   raw.League.ID,
			LeagueName: raw.League.DisplayName,
			StartDate:  time.Unix(raw.League.StartDateTime, 0).UTC(),
			EndDate:    time.Unix(raw.League.EndDateTime, 0).UTC(),
			Tier:       raw.League.Tier,
			PrizePool:  raw.League.PrizePool,
		}
	}

	// Unregistered sides carry no nested team object and are dropped.
	for _, t := range []*models.RawTeam{raw.RadiantTeam, raw.DireTeam} {
		if t == nil {
			continue
		}
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
		out.Teams = append(out.Teams, team)
	}

	out.Accounts = collectAccounts(raw.Players)
	out.Draft = deriveDraft(raw.ID, raw.Stats.PickBans, raw.Players)
	out.Players, out.Movements = collectPlayers(raw.ID, raw.Players)
	out.Events = n.classifyEvents(raw.ID, raw.Players)

	return out, nil
}

// Tombstone builds the reparse marker for a raw match that failed
// normalization.
func Tombstone(raw models.RawMatch) models.IncompleteMatch {
	t := models.IncompleteMatch{MatchID: raw.ID}
	if raw.ReplaySalt != nil {
		t.ReplaySalt = *raw.ReplaySalt
	}
	return t
}

func validateRequired(raw models.RawMatch) error {
	missing := ""
	switch {
	case raw.ReplaySalt == nil:
		missing = "replaySalt"
	case raw.GameVersionID == nil:
		missing = "gameVersionId"
	case raw.StartDateTime == nil:
		missing = "startDateTime"
	case raw.DidRadiantWin == nil:
		missing = "didRadiantWin"
	case raw.DurationSeconds == nil:
		missing = "durationSeconds"
	case raw.RegionID == nil:
		missing = "regionId"
	case raw.LobbyType == nil:
		missing = "lobbyType"
	case raw.GameMode == nil:
		missing = "gameMode"
	case raw.IsStats == nil || !*raw.IsStats:
		missing = "stats flag"
	case raw.Stats == nil || len(raw.Stats.PickBans) == 0:
		missing = "stats.pickBans"
	case len(raw.Players) == 0:
		missing = "players"
	}
	if missing != "" {
		return &IncompleteDataError{MatchID: raw.ID, Section: missing}
	}
	for _, p := range raw.Players {
		if p.PlaybackData == nil {
			return &IncompleteDataError{MatchID: raw.ID, Section: "playbackData"}
		}
	}
	return nil
}

// collectAccounts gathers the steam accounts seen in a match, preferring
// the linked professional display name. The first occurrence of an id
// wins.
func collectAccounts(players []models.RawMatchPlayer) []models.Account {
	var accounts []models.Account
	seen := make(map[int64]struct{}, len(players))
	for _, p := range players {
		if p.SteamAccount == nil {
			continue
		}
		if _, ok := seen[p.SteamAccount.ID]; ok {
			continue
		}
		seen[p.SteamAccount.ID] = struct{}{}

		name := ""
		if p.SteamAccount.Name != nil {
			name = *p.SteamAccount.Name
		}
		if pro := p.SteamAccount.ProSteamAccount; pro != nil && pro.Name != nil {
			name = *pro.Name
		}
		accounts = append(accounts, models.Account{
			SteamID:   p.SteamAccount.ID,
			SteamName: name,
		})
	}
	return accounts
}

// collectPlayers re-keys the per-player nested rows with the match id
// and hero id the nested shape does not repeat.
func collectPlayers(matchID int64, players []models.RawMatchPlayer) ([]models.MatchPlayer, []models.HeroMovement) {
	matchPlayers := make([]models.MatchPlayer, 0, len(players))
	var movements []models.HeroMovement

	for _, p := range players {
		slot := 0
		if p.PlayerSlot != nil {
			slot = *p.PlayerSlot
		}
		matchPlayers = append(matchPlayers, models.MatchPlayer{
			MatchID:  matchID,
			HeroID:   p.HeroID,
			SteamID:  p.SteamAccountID,
			Slot:     slot,
			PartyID:  p.PartyID,
			IsLeaver: p.LeaverStatus != nil && *p.LeaverStatus > 0,
		})

		for i, pos := range p.PlaybackData.PlayerUpdatePositionEvents {
			movements = append(movements, models.HeroMovement{
				MatchID: matchID,
				HeroID:  p.HeroID,
				ID:      i,
				Time:    pos.Time,
				X:       pos.X,
				Y:       pos.Y,
			})
		}
	}
	return matchPlayers, movements
}
