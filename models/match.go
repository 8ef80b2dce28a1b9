package models

import (
	"time"
)

// Tournament is the league dimension entity.
type Tournament struct {
	LeagueID   int64     `json:"league_id"`
	LeagueName string    `json:"league_name"`
	StartDate  time.Time `json:"league_start_date"`
	EndDate    time.Time `json:"league_end_date"`
	Tier       *string   `json:"tier"`
	PrizePool  *int64    `json:"prize_pool"`
}

// CompetitiveTeam is the registered professional team dimension entity.
type CompetitiveTeam struct {
	TeamID      int64      `json:"team_id"`
	TeamName    string     `json:"team_name"`
	TeamTag     string     `json:"team_tag"`
	CountryCode *string    `json:"country_code"`
	Created     *time.Time `json:"created"`
}

// Account is a steam account seen in a match. SteamName prefers the
// linked professional display name over the raw account name.
type Account struct {
	SteamID   int64  `json:"steam_id"`
	SteamName string `json:"steam_name"`
}

// GameVersion is one Dota 2 patch.
type GameVersion struct {
	PatchID     int       `json:"patch_id"`
	Patch       string    `json:"patch"`
	ReleaseDate time.Time `json:"release_date"`
}

// Hero is the hero dimension entity.
type Hero struct {
	HeroID      int    `json:"hero_id"`
	ShortName   string `json:"hero_internal_name"`
	DisplayName string `json:"hero_display_name"`
}

// Item is the item dimension entity.
type Item struct {
	ItemID      int     `json:"item_id"`
	ShortName   string  `json:"item_internal_name"`
	DisplayName *string `json:"item_display_name"`
}

// Match holds the flat scalar fields of one normalized match.
type Match struct {
	MatchID         int64     `json:"match_id"`
	ReplaySalt      int64     `json:"replay_salt"`
	PatchID         int       `json:"patch_id"`
	LeagueID        *int64    `json:"league_id"`
	SeriesID        *int64    `json:"series_id"`
	RadiantTeamID   *int64    `json:"radiant_team_id"`
	DireTeamID      *int64    `json:"dire_team_id"`
	StartTime       time.Time `json:"start_datetime"`
	IsRanked        bool      `json:"is_ranked"`
	WinningFaction  string    `json:"winning_faction"`
	DurationSeconds int       `json:"duration"`
	Region          string    `json:"region"`
	LobbyType       string    `json:"lobby_type"`
	GameMode        string    `json:"game_mode"`
}

// MatchPlayer is one hero slot in a match.
type MatchPlayer struct {
	MatchID  int64  `json:"match_id"`
	HeroID   int    `json:"hero_id"`
	SteamID  *int64 `json:"steam_id"`
	Slot     int    `json:"slot"`
	PartyID  *int   `json:"party_id"`
	IsLeaver bool   `json:"is_leaver"`
}

// DraftType is the canonical label of one hero-selection action.
type DraftType string

const (
	DraftPick          DraftType = "pick"
	DraftBan           DraftType = "ban"
	DraftBanVote       DraftType = "ban vote"
	DraftSystemBan     DraftType = "system generated ban"
	DraftSystemBanVote DraftType = "system generated ban vote"
)

// DraftEntry is one pick or ban action in a match's hero-selection phase.
type DraftEntry struct {
	MatchID   int64     `json:"match_id"`
	HeroID    int       `json:"hero_id"`
	DraftType DraftType `json:"draft_type"`
	Order     *int      `json:"draft_order"`
	IsRandom  bool      `json:"is_random"`
	BySteamID *int64    `json:"by_steam_id"`
}

// HeroMovement is one map-position sample of a hero.
type HeroMovement struct {
	MatchID int64 `json:"match_id"`
	HeroID  int   `json:"hero_id"`
	ID      int   `json:"id"`
	Time    int   `json:"time"`
	X       int   `json:"x"`
	Y       int   `json:"y"`
}

// MatchEvent is one classified event. SequenceID is unique within a match
// and assigned by a stable sort over (event type, time) after all
// sub-streams are merged.
type MatchEvent struct {
	MatchID    int64             `json:"match_id"`
	SequenceID int               `json:"id"`
	EventType  EventType         `json:"event_type"`
	Time       int               `json:"time"`
	X          *int              `json:"x"`
	Y          *int              `json:"y"`
	HeroID     *int              `json:"hero_id"`
	NpcID      *int              `json:"npc_id"`
	AbilityID  *int              `json:"ability_id"`
	ItemID     *int              `json:"item_id"`
	Extra      map[string]string `json:"extra_data"`
}

// IncompleteMatch is the tombstone staged when a raw payload cannot be
// normalized. Re-staging the same match id overwrites the prior tombstone.
type IncompleteMatch struct {
	MatchID    int64 `json:"match_id"`
	ReplaySalt int64 `json:"replay_salt"`
}

// NormalizedMatch is the full relational output for one match, handed to
// the persistence collaborator as a unit.
type NormalizedMatch struct {
	Match      Match             `json:"match"`
	Tournament *Tournament       `json:"tournament"`
	Teams      []CompetitiveTeam `json:"teams"`
	Accounts   []Account         `json:"accounts"`
	Draft      []DraftEntry      `json:"draft"`
	Players    []MatchPlayer     `json:"players"`
	Movements  []HeroMovement    `json:"hero_movements"`
	Events     []MatchEvent      `json:"events"`
}
