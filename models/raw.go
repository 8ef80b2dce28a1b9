package models

// Raw payload structs mirror the STRATZ GraphQL response shape. All of
// these are ephemeral: they exist only between the HTTP response and the
// normalizer, and are never shared across concurrent normalizations.
// Optional provider fields are pointers so that absent and zero values
// stay distinguishable during validation.

// RawMatch is the nested per-match tree returned by the match-detail query.
type RawMatch struct {
	ID              int64            `json:"id"`
	ReplaySalt      *int64           `json:"replaySalt"`
	GameVersionID   *int             `json:"gameVersionId"`
	LeagueID        *int64           `json:"leagueId"`
	SeriesID        *int64           `json:"seriesId"`
	RadiantTeamID   *int64           `json:"radiantTeamId"`
	DireTeamID      *int64           `json:"direTeamId"`
	StartDateTime   *int64           `json:"startDateTime"`
	IsStats         *bool            `json:"isStats"`
	DidRadiantWin   *bool            `json:"didRadiantWin"`
	DurationSeconds *int             `json:"durationSeconds"`
	RegionID        *int             `json:"regionId"`
	LobbyType       *int             `json:"lobbyType"`
	GameMode        *int             `json:"gameMode"`
	League          *RawLeague       `json:"league"`
	RadiantTeam     *RawTeam         `json:"radiantTeam"`
	DireTeam        *RawTeam         `json:"direTeam"`
	Players         []RawMatchPlayer `json:"players"`
	Stats           *RawMatchStats   `json:"stats"`
}

type RawLeague struct {
	ID            int64   `json:"id"`
	DisplayName   string  `json:"displayName"`
	StartDateTime int64   `json:"startDateTime"`
	EndDateTime   int64   `json:"endDateTime"`
	Tier          *string `json:"tier"`
	PrizePool     *int64  `json:"prizePool"`
}

type RawTeam struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Tag         string  `json:"tag"`
	CountryCode *string `json:"countryCode"`
	DateCreated *int64  `json:"dateCreated"`
}

type RawSteamAccount struct {
	ID              int64          `json:"id"`
	Name            *string        `json:"name"`
	ProSteamAccount *RawProAccount `json:"proSteamAccount"`
}

type RawProAccount struct {
	Name *string `json:"name"`
}

type RawMatchPlayer struct {
	SteamAccountID *int64           `json:"steamAccountId"`
	SteamAccount   *RawSteamAccount `json:"steamAccount"`
	HeroID         int              `json:"heroId"`
	PlayerSlot     *int             `json:"playerSlot"`
	PartyID        *int             `json:"partyId"`
	LeaverStatus   *int             `json:"leaverStatus"`
	IsRandom       *bool            `json:"isRandom"`
	PlaybackData   *RawPlaybackData `json:"playbackData"`
}

type RawMatchStats struct {
	PickBans []RawPickBan `json:"pickBans"`
}

type RawPickBan struct {
	IsPick                bool `json:"isPick"`
	HeroID                *int `json:"heroId"`
	BannedHeroID          *int `json:"bannedHeroId"`
	WasBannedSuccessfully bool `json:"wasBannedSuccessfully"`
	PlayerIndex           *int `json:"playerIndex"`
	Order                 *int `json:"order"`
}

// RawPlaybackData carries the per-player event sub-streams. Every stream
// has its own raw shape; the classifier maps each one onto MatchEvent.
type RawPlaybackData struct {
	PlayerUpdatePositionEvents []RawPositionEvent     `json:"playerUpdatePositionEvents"`
	AbilityLearnEvents         []RawAbilityLearnEvent `json:"abilityLearnEvents"`
	AbilityUsedEvents          []RawAbilityUsedEvent  `json:"abilityUsedEvents"`
	PurchaseEvents             []RawPurchaseEvent     `json:"purchaseEvents"`
	ItemUsedEvents             []RawItemUsedEvent     `json:"itemUsedEvents"`
	KillEvents                 []RawTargetedEvent     `json:"killEvents"`
	DeathEvents                []RawDeathEvent        `json:"deathEvents"`
	AssistEvents               []RawTargetedEvent     `json:"assistEvents"`
	CsEvents                   []RawCsEvent           `json:"csEvents"`
	BuyBackEvents              []RawBuybackEvent      `json:"buyBackEvents"`
	WardEvents                 []RawWardEvent         `json:"wardEvents"`
	RuneEvents                 []RawRuneEvent         `json:"runeEvents"`
	GoldEvents                 []RawDeltaEvent        `json:"playerUpdateGoldEvents"`
	ExperienceEvents           []RawDeltaEvent        `json:"playerUpdateExperienceEvents"`
}

type RawPositionEvent struct {
	Time int `json:"time"`
	X    int `json:"x"`
	Y    int `json:"y"`
}

type RawAbilityLearnEvent struct {
	Time          int  `json:"time"`
	AbilityID     int  `json:"abilityId"`
	LevelObtained *int `json:"levelObtained"`
}

type RawAbilityUsedEvent struct {
	Time         int  `json:"time"`
	AbilityID    int  `json:"abilityId"`
	TargetHeroID *int `json:"targetHeroId"`
}

type RawPurchaseEvent struct {
	Time   int `json:"time"`
	ItemID int `json:"itemId"`
}

type RawItemUsedEvent struct {
	Time         int  `json:"time"`
	ItemID       int  `json:"itemId"`
	TargetHeroID *int `json:"targetHeroId"`
}

// RawTargetedEvent covers kill and assist streams, whose raw shape is a
// hero-on-hero interaction with a map position.
type RawTargetedEvent struct {
	Time         int  `json:"time"`
	TargetHeroID *int `json:"target"`
	X            int  `json:"x"`
	Y            int  `json:"y"`
}

type RawDeathEvent struct {
	Time           int  `json:"time"`
	AttackerHeroID *int `json:"attacker"`
	X              int  `json:"x"`
	Y              int  `json:"y"`
	GoldLost       *int `json:"goldLost"`
}

// RawCsEvent is a non-hero-unit interaction; NpcID is classified by
// numeric range into building, ward, courier, Roshan or creep.
type RawCsEvent struct {
	Time   int  `json:"time"`
	NpcID  int  `json:"npcId"`
	IsDeny bool `json:"isDeny"`
	X      int  `json:"x"`
	Y      int  `json:"y"`
}

type RawBuybackEvent struct {
	Time int  `json:"time"`
	Cost *int `json:"cost"`
}

type RawWardEvent struct {
	Time     int    `json:"time"`
	WardType string `json:"wardType"`
	Action   string `json:"action"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

type RawRuneEvent struct {
	Time     int    `json:"time"`
	RuneType int    `json:"rune"`
	Action   string `json:"action"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// RawDeltaEvent covers the gold and experience change streams.
type RawDeltaEvent struct {
	Time  int `json:"time"`
	Delta int `json:"delta"`
}

// RawGameVersion is one entry of the gameVersions constants query.
type RawGameVersion struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	AsOfDateTime int64  `json:"asOfDateTime"`
}

// RawLeagueMatch is one row of the per-league match listing query.
type RawLeagueMatch struct {
	ID       int64  `json:"id"`
	LeagueID *int64 `json:"leagueId"`
}

// RawHero is one entry of the heroes constants query.
type RawHero struct {
	ID          int    `json:"id"`
	ShortName   string `json:"shortName"`
	DisplayName string `json:"displayName"`
}

// RawItem is one entry of the items constants query.
type RawItem struct {
	ID          int     `json:"id"`
	ShortName   string  `json:"shortName"`
	DisplayName *string `json:"displayName"`
}
