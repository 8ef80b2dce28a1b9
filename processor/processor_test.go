package processor

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	appconfig "darkseer/config"
	"darkseer/models"
)

func i(v int) *int       { return &v }
func i64(v int64) *int64 { return &v }
func b(v bool) *bool     { return &v }
func s(v string) *string { return &v }

// fullRawMatch builds a complete raw payload for match 100. Two players,
// one of them a registered pro, with a small spread of activity streams.
func fullRawMatch() models.RawMatch {
	return models.RawMatch{
		ID:              100,
		ReplaySalt:      i64(777),
		GameVersionID:   i(169),
		LeagueID:        i64(15728),
		RadiantTeamID:   i64(8599101),
		StartDateTime:   i64(1700000000),
		IsStats:         b(true),
		DidRadiantWin:   b(true),
		DurationSeconds: i(2400),
		RegionID:        i(3),
		LobbyType:       i(7),
		GameMode:        i(2),
		League: &models.RawLeague{
			ID:            15728,
			DisplayName:   "The International",
			StartDateTime: 1699000000,
			EndDateTime:   1701000000,
			Tier:          s("INTERNATIONAL"),
		},
		RadiantTeam: &models.RawTeam{ID: 8599101, Name: "Gaimin Gladiators", Tag: "GG"},
		Players: []models.RawMatchPlayer{
			{
				SteamAccountID: i64(111),
				SteamAccount: &models.RawSteamAccount{
					ID:              111,
					Name:            s("smurf_account"),
					ProSteamAccount: &models.RawProAccount{Name: s("Quinn")},
				},
				HeroID:     39,
				PlayerSlot: i(0),
				IsRandom:   b(false),
				PlaybackData: &models.RawPlaybackData{
					PlayerUpdatePositionEvents: []models.RawPositionEvent{
						{Time: 0, X: 100, Y: 100},
						{Time: 1, X: 101, Y: 100},
					},
					AbilityLearnEvents: []models.RawAbilityLearnEvent{{Time: 5, AbilityID: 5003, LevelObtained: i(1)}},
					KillEvents:         []models.RawTargetedEvent{{Time: 600, TargetHeroID: i(14), X: 80, Y: 90}},
					CsEvents: []models.RawCsEvent{
						{Time: 30, NpcID: 400, IsDeny: false, X: 10, Y: 10},
						{Time: 31, NpcID: 401, IsDeny: true, X: 11, Y: 10},
						{Time: 900, NpcID: 12, X: 50, Y: 50},
						{Time: 1200, NpcID: 132, X: 60, Y: 60},
					},
					GoldEvents: []models.RawDeltaEvent{{Time: 60, Delta: 100}},
				},
			},
			{
				SteamAccountID: i64(222),
				SteamAccount:   &models.RawSteamAccount{ID: 222, Name: s("pubstar")},
				HeroID:         14,
				PlayerSlot:     i(128),
				LeaverStatus:   i(0),
				PlaybackData: &models.RawPlaybackData{
					DeathEvents: []models.RawDeathEvent{{Time: 600, AttackerHeroID: i(39), X: 80, Y: 90, GoldLost: i(240)}},
					WardEvents:  []models.RawWardEvent{{Time: 120, WardType: "observer", Action: "SPAWN", X: 70, Y: 70}},
					RuneEvents:  []models.RawRuneEvent{{Time: 240, RuneType: 5, Action: "PICKUP", X: 65, Y: 65}},
				},
			},
		},
		Stats: &models.RawMatchStats{
			PickBans: []models.RawPickBan{
				{IsPick: true, HeroID: i(39), WasBannedSuccessfully: false, PlayerIndex: i(0), Order: i(0)},
				{IsPick: false, BannedHeroID: i(1), WasBannedSuccessfully: true, PlayerIndex: i(1), Order: i(1)},
			},
		},
	}
}

func TestNormalizeMatchScalars(t *testing.T) {
	norm, err := NewNormalizer().NormalizeMatch(fullRawMatch())
	if err != nil {
		t.Fatalf("NormalizeMatch: %v", err)
	}

	m := norm.Match
	if m.MatchID != 100 || m.ReplaySalt != 777 || m.PatchID != 169 {
		t.Errorf("unexpected identity fields: %+v", m)
	}
	if m.Region != "Europe West" || m.LobbyType != "Ranked" || m.GameMode != "Captains Mode" {
		t.Errorf("unexpected enum labels: %+v", m)
	}
	if !m.IsRanked {
		t.Errorf("lobby 7 should mark the match ranked")
	}
	if m.WinningFaction != "radiant" {
		t.Errorf("unexpected winner %q", m.WinningFaction)
	}
	if !m.StartTime.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("unexpected start time %v", m.StartTime)
	}
}

func TestNormalizeMatchDropsUnregisteredTeam(t *testing.T) {
	norm, err := NewNormalizer().NormalizeMatch(fullRawMatch())
	if err != nil {
		t.Fatalf("NormalizeMatch: %v", err)
	}
	if len(norm.Teams) != 1 || norm.Teams[0].TeamID != 8599101 {
		t.Errorf("expected only the registered radiant team, got %+v", norm.Teams)
	}
}

func TestNormalizeMatchPrefersProName(t *testing.T) {
	norm, err := NewNormalizer().NormalizeMatch(fullRawMatch())
	if err != nil {
		t.Fatalf("NormalizeMatch: %v", err)
	}

	byID := make(map[int64]string)
	for _, a := range norm.Accounts {
		byID[a.SteamID] = a.SteamName
	}
	if byID[111] != "Quinn" {
		t.Errorf("expected pro display name, got %q", byID[111])
	}
	if byID[222] != "pubstar" {
		t.Errorf("expected raw account name, got %q", byID[222])
	}
}

func TestNormalizeMatchReKeysPlayersAndMovements(t *testing.T) {
	norm, err := NewNormalizer().NormalizeMatch(fullRawMatch())
	if err != nil {
		t.Fatalf("NormalizeMatch: %v", err)
	}

	if len(norm.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(norm.Players))
	}
	for _, p := range norm.Players {
		if p.MatchID != 100 {
			t.Errorf("player row missing match id: %+v", p)
		}
	}
	if len(norm.Movements) != 2 {
		t.Fatalf("expected 2 movement samples, got %d", len(norm.Movements))
	}
	for idx, mv := range norm.Movements {
		if mv.MatchID != 100 || mv.HeroID != 39 || mv.ID != idx {
			t.Errorf("movement row not re-keyed: %+v", mv)
		}
	}
}

func TestDraftDerivation(t *testing.T) {
	cases := []struct {
		name string
		pb   models.RawPickBan
		want models.DraftType
	}{
		{"pick", models.RawPickBan{IsPick: true, HeroID: i(1), PlayerIndex: i(0)}, models.DraftPick},
		{"ban", models.RawPickBan{BannedHeroID: i(1), WasBannedSuccessfully: true, PlayerIndex: i(0)}, models.DraftBan},
		{"ban vote", models.RawPickBan{BannedHeroID: i(1), PlayerIndex: i(0)}, models.DraftBanVote},
		{"system ban", models.RawPickBan{BannedHeroID: i(1), WasBannedSuccessfully: true}, models.DraftSystemBan},
		{"system ban vote", models.RawPickBan{BannedHeroID: i(1)}, models.DraftSystemBanVote},
	}

	players := []models.RawMatchPlayer{{SteamAccountID: i64(111), HeroID: 1}}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entries := deriveDraft(100, []models.RawPickBan{tc.pb}, players)
			if len(entries) != 1 {
				t.Fatalf("expected one entry, got %d", len(entries))
			}
			if entries[0].DraftType != tc.want {
				t.Errorf("got %q, want %q", entries[0].DraftType, tc.want)
			}
		})
	}
}

func TestDraftBannedHeroWins(t *testing.T) {
	entries := deriveDraft(100, []models.RawPickBan{
		{BannedHeroID: i(42), HeroID: i(7), WasBannedSuccessfully: true, PlayerIndex: i(0)},
	}, []models.RawMatchPlayer{{SteamAccountID: i64(111)}})
	if entries[0].HeroID != 42 {
		t.Errorf("expected banned hero id 42, got %d", entries[0].HeroID)
	}
	if entries[0].BySteamID == nil || *entries[0].BySteamID != 111 {
		t.Errorf("actor not resolved via player index: %+v", entries[0])
	}
}

func TestDraftActorIndexOutOfRange(t *testing.T) {
	entries := deriveDraft(100, []models.RawPickBan{
		{BannedHeroID: i(42), WasBannedSuccessfully: true, PlayerIndex: i(9)},
	}, []models.RawMatchPlayer{{SteamAccountID: i64(111)}})
	if entries[0].BySteamID != nil {
		t.Errorf("expected nil actor for out-of-range index, got %v", *entries[0].BySteamID)
	}
}

func TestCsEventClassification(t *testing.T) {
	n := NewNormalizer()
	cases := []struct {
		npcID  int
		isDeny bool
		want   models.EventType
	}{
		{400, false, models.EventCreepKill},
		{400, true, models.EventCreepDeny},
		{12, false, models.EventBuildingDeath},
		{105, false, models.EventCourierDeath},
		{112, false, models.EventWardDestroyed},
		{132, false, models.EventRoshanDeath},
	}
	for _, tc := range cases {
		got := n.csEventType(models.RawCsEvent{NpcID: tc.npcID, IsDeny: tc.isDeny})
		if got != tc.want {
			t.Errorf("npc %d deny=%v: got %q, want %q", tc.npcID, tc.isDeny, got, tc.want)
		}
	}
}

func TestSequenceIDsAreDeterministic(t *testing.T) {
	n := NewNormalizer()
	first, err := n.NormalizeMatch(fullRawMatch())
	if err != nil {
		t.Fatalf("first normalization: %v", err)
	}
	second, err := n.NormalizeMatch(fullRawMatch())
	if err != nil {
		t.Fatalf("second normalization: %v", err)
	}

	if !reflect.DeepEqual(first.Events, second.Events) {
		t.Errorf("event lists differ between identical normalizations")
	}
	for idx, ev := range first.Events {
		if ev.SequenceID != idx {
			t.Errorf("sequence ids not dense from 0: position %d has id %d", idx, ev.SequenceID)
		}
	}
}

func TestEventsSortedByTypeThenTime(t *testing.T) {
	norm, err := NewNormalizer().NormalizeMatch(fullRawMatch())
	if err != nil {
		t.Fatalf("NormalizeMatch: %v", err)
	}
	for idx := 1; idx < len(norm.Events); idx++ {
		prev, cur := norm.Events[idx-1], norm.Events[idx]
		if prev.EventType > cur.EventType {
			t.Fatalf("events not grouped by type at %d: %q after %q", idx, cur.EventType, prev.EventType)
		}
		if prev.EventType == cur.EventType && prev.Time > cur.Time {
			t.Fatalf("events not time-ordered within type at %d", idx)
		}
	}
}

func TestNormalizeMatchIncompletePayload(t *testing.T) {
	raw := fullRawMatch()
	raw.Stats = nil

	_, err := NewNormalizer().NormalizeMatch(raw)
	var incomplete *IncompleteDataError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteDataError, got %v", err)
	}

	tomb := Tombstone(raw)
	if tomb.MatchID != 100 || tomb.ReplaySalt != 777 {
		t.Errorf("unexpected tombstone: %+v", tomb)
	}
}

func TestNormalizeMatchUnknownEnum(t *testing.T) {
	raw := fullRawMatch()
	raw.RegionID = i(99)

	_, err := NewNormalizer().NormalizeMatch(raw)
	var unknown *models.UnknownEnumValueError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownEnumValueError, got %v", err)
	}
	if unknown.Code != 99 {
		t.Errorf("unexpected code %d", unknown.Code)
	}
}

func TestMatchProcessorIsolatesMalformedMatch(t *testing.T) {
	cfg := &appconfig.Config{}
	cfg.Processor.MaxWorkers = 1

	rawChan := make(chan models.RawMatch, 2)
	normChan := make(chan models.NormalizedMatch, 2)
	incompleteChan := make(chan models.IncompleteMatch, 2)

	bad := fullRawMatch()
	bad.ID = 101
	bad.ReplaySalt = i64(888)
	bad.Players = nil

	rawChan <- bad
	rawChan <- fullRawMatch()
	close(rawChan)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewMatchProcessor(cfg, rawChan, normChan, incompleteChan)
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var norm models.NormalizedMatch
	select {
	case norm = <-normChan:
	case <-time.After(2 * time.Second):
		t.Fatalf("normalized match never arrived")
	}
	if norm.Match.MatchID != 100 {
		t.Errorf("unexpected normalized match %d", norm.Match.MatchID)
	}

	var tomb models.IncompleteMatch
	select {
	case tomb = <-incompleteChan:
	case <-time.After(2 * time.Second):
		t.Fatalf("tombstone never arrived")
	}
	if tomb.MatchID != 101 || tomb.ReplaySalt != 888 {
		t.Errorf("unexpected tombstone %+v", tomb)
	}

	cancel()
	p.Stop()
}
