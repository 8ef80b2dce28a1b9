package writer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"darkseer/logger"
	"darkseer/models"
)

// Store is the embedded SQLite persistence layer. Every write is an
// upsert on the entity's natural key, so delivering the same batch twice
// leaves the database unchanged.
type Store struct {
	db  *sql.DB
	log *logger.Log
}

const schema = `
CREATE TABLE IF NOT EXISTS tournament (
	league_id         INTEGER PRIMARY KEY,
	league_name       TEXT NOT NULL,
	league_start_date INTEGER NOT NULL,
	league_end_date   INTEGER NOT NULL,
	tier              TEXT,
	prize_pool        INTEGER
);

CREATE TABLE IF NOT EXISTS competitive_team (
	team_id      INTEGER PRIMARY KEY,
	team_name    TEXT NOT NULL,
	team_tag     TEXT NOT NULL,
	country_code TEXT,
	created      INTEGER
);

CREATE TABLE IF NOT EXISTS account (
	steam_id   INTEGER PRIMARY KEY,
	steam_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS game_version (
	patch_id     INTEGER PRIMARY KEY,
	patch        TEXT NOT NULL,
	release_date INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS hero (
	hero_id            INTEGER PRIMARY KEY,
	hero_internal_name TEXT NOT NULL,
	hero_display_name  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS item (
	item_id            INTEGER PRIMARY KEY,
	item_internal_name TEXT NOT NULL,
	item_display_name  TEXT
);

CREATE TABLE IF NOT EXISTS match (
	match_id        INTEGER PRIMARY KEY,
	replay_salt     INTEGER NOT NULL,
	patch_id        INTEGER NOT NULL,
	league_id       INTEGER,
	series_id       INTEGER,
	radiant_team_id INTEGER,
	dire_team_id    INTEGER,
	start_datetime  INTEGER NOT NULL,
	is_ranked       INTEGER NOT NULL,
	winning_faction TEXT NOT NULL,
	duration        INTEGER NOT NULL,
	region          TEXT NOT NULL,
	lobby_type      TEXT NOT NULL,
	game_mode       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS match_player (
	match_id  INTEGER NOT NULL,
	hero_id   INTEGER NOT NULL,
	steam_id  INTEGER,
	slot      INTEGER NOT NULL,
	party_id  INTEGER,
	is_leaver INTEGER NOT NULL,
	PRIMARY KEY (match_id, hero_id)
);

CREATE TABLE IF NOT EXISTS match_draft (
	match_id    INTEGER NOT NULL,
	hero_id     INTEGER NOT NULL,
	draft_type  TEXT NOT NULL,
	draft_order INTEGER,
	is_random   INTEGER NOT NULL,
	by_steam_id INTEGER,
	PRIMARY KEY (match_id, hero_id, draft_type)
);

CREATE TABLE IF NOT EXISTS match_hero_movement (
	match_id INTEGER NOT NULL,
	hero_id  INTEGER NOT NULL,
	id       INTEGER NOT NULL,
	time     INTEGER NOT NULL,
	x        INTEGER NOT NULL,
	y        INTEGER NOT NULL,
	PRIMARY KEY (match_id, hero_id, id)
);

CREATE TABLE IF NOT EXISTS match_event (
	match_id   INTEGER NOT NULL,
	id         INTEGER NOT NULL,
	event_type TEXT NOT NULL,
	time       INTEGER NOT NULL,
	x          INTEGER,
	y          INTEGER,
	hero_id    INTEGER,
	npc_id     INTEGER,
	ability_id INTEGER,
	item_id    INTEGER,
	extra_data TEXT,
	PRIMARY KEY (match_id, id)
);

CREATE TABLE IF NOT EXISTS incomplete_match (
	match_id    INTEGER PRIMARY KEY,
	replay_salt INTEGER NOT NULL
);
`

// NewStore opens (or creates) the database at path and bootstraps the
// schema. Use ":memory:" for an ephemeral store.
func NewStore(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &Store{db: db, log: logger.GetLogger()}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// WriteGameVersions upserts the patch dimension.
func (s *Store) WriteGameVersions(ctx context.Context, versions []models.GameVersion) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, v := range versions {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO game_version (patch_id, patch, release_date) VALUES (?, ?, ?)
				ON CONFLICT (patch_id) DO UPDATE SET patch = excluded.patch, release_date = excluded.release_date`,
				v.PatchID, v.Patch, v.ReleaseDate.Unix())
			if err != nil {
				return fmt.Errorf("upsert game version %d: %w", v.PatchID, err)
			}
		}
		logger.IncrementRowsWritten(len(versions))
		return nil
	})
}

// WriteHeroes upserts the hero dimension.
func (s *Store) WriteHeroes(ctx context.Context, heroes []models.Hero) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, h := range heroes {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO hero (hero_id, hero_internal_name, hero_display_name) VALUES (?, ?, ?)
				ON CONFLICT (hero_id) DO UPDATE SET hero_internal_name = excluded.hero_internal_name, hero_display_name = excluded.hero_display_name`,
				h.HeroID, h.ShortName, h.DisplayName)
			if err != nil {
				return fmt.Errorf("upsert hero %d: %w", h.HeroID, err)
			}
		}
		logger.IncrementRowsWritten(len(heroes))
		return nil
	})
}

// WriteItems upserts the item dimension.
func (s *Store) WriteItems(ctx context.Context, items []models.Item) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, it := range items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO item (item_id, item_internal_name, item_display_name) VALUES (?, ?, ?)
				ON CONFLICT (item_id) DO UPDATE SET item_internal_name = excluded.item_internal_name, item_display_name = excluded.item_display_name`,
				it.ItemID, it.ShortName, it.DisplayName)
			if err != nil {
				return fmt.Errorf("upsert item %d: %w", it.ItemID, err)
			}
		}
		logger.IncrementRowsWritten(len(items))
		return nil
	})
}

// WriteTournaments upserts league dimension rows.
func (s *Store) WriteTournaments(ctx context.Context, tournaments []models.Tournament) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tournaments {
			if err := upsertTournament(ctx, tx, t); err != nil {
				return err
			}
		}
		logger.IncrementRowsWritten(len(tournaments))
		return nil
	})
}

// WriteTeams upserts team dimension rows.
func (s *Store) WriteTeams(ctx context.Context, teams []models.CompetitiveTeam) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range teams {
			if err := upsertTeam(ctx, tx, t); err != nil {
				return err
			}
		}
		logger.IncrementRowsWritten(len(teams))
		return nil
	})
}

// WriteMatches persists a batch of normalized matches in one
// transaction. Dimension entities repeated across matches in the batch
// are written once.
func (s *Store) WriteMatches(ctx context.Context, batch []models.NormalizedMatch) error {
	if len(batch) == 0 {
		return nil
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		rows := 0
		seenTournaments := make(map[int64]struct{})
		seenTeams := make(map[int64]struct{})
		seenAccounts := make(map[int64]struct{})

		for _, nm := range batch {
			if t := nm.Tournament; t != nil {
				if _, ok := seenTournaments[t.LeagueID]; !ok {
					seenTournaments[t.LeagueID] = struct{}{}
					if err := upsertTournament(ctx, tx, *t); err != nil {
						return err
					}
					rows++
				}
			}
			for _, team := range nm.Teams {
				if _, ok := seenTeams[team.TeamID]; ok {
					continue
				}
				seenTeams[team.TeamID] = struct{}{}
				if err := upsertTeam(ctx, tx, team); err != nil {
					return err
				}
				rows++
			}
			for _, a := range nm.Accounts {
				if _, ok := seenAccounts[a.SteamID]; ok {
					continue
				}
				seenAccounts[a.SteamID] = struct{}{}
				_, err := tx.ExecContext(ctx, `
					INSERT INTO account (steam_id, steam_name) VALUES (?, ?)
					ON CONFLICT (steam_id) DO UPDATE SET steam_name = excluded.steam_name`,
					a.SteamID, a.SteamName)
				if err != nil {
					return fmt.Errorf("upsert account %d: %w", a.SteamID, err)
				}
				rows++
			}

			n, err := writeMatch(ctx, tx, nm)
			if err != nil {
				return err
			}
			rows += n

			// A freshly normalized match supersedes its tombstone.
			if _, err := tx.ExecContext(ctx, `DELETE FROM incomplete_match WHERE match_id = ?`, nm.Match.MatchID); err != nil {
				return fmt.Errorf("clear tombstone for match %d: %w", nm.Match.MatchID, err)
			}
		}

		logger.IncrementRowsWritten(rows)
		return nil
	})
}

func writeMatch(ctx context.Context, tx *sql.Tx, nm models.NormalizedMatch) (int, error) {
	m := nm.Match
	_, err := tx.ExecContext(ctx, `
		INSERT INTO match (match_id, replay_salt, patch_id, league_id, series_id, radiant_team_id, dire_team_id,
			start_datetime, is_ranked, winning_faction, duration, region, lobby_type, game_mode)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (match_id) DO UPDATE SET
			replay_salt = excluded.replay_salt, patch_id = excluded.patch_id, league_id = excluded.league_id,
			series_id = excluded.series_id, radiant_team_id = excluded.radiant_team_id, dire_team_id = excluded.dire_team_id,
			start_datetime = excluded.start_datetime, is_ranked = excluded.is_ranked,
			winning_faction = excluded.winning_faction, duration = excluded.duration,
			region = excluded.region, lobby_type = excluded.lobby_type, game_mode = excluded.game_mode`,
		m.MatchID, m.ReplaySalt, m.PatchID, m.LeagueID, m.SeriesID, m.RadiantTeamID, m.DireTeamID,
		m.StartTime.Unix(), m.IsRanked, m.WinningFaction, m.DurationSeconds, m.Region, m.LobbyType, m.GameMode)
	if err != nil {
		return 0, fmt.Errorf("upsert match %d: %w", m.MatchID, err)
	}
	rows := 1

	for _, p := range nm.Players {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO match_player (match_id, hero_id, steam_id, slot, party_id, is_leaver) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (match_id, hero_id) DO UPDATE SET
				steam_id = excluded.steam_id, slot = excluded.slot, party_id = excluded.party_id, is_leaver = excluded.is_leaver`,
			p.MatchID, p.HeroID, p.SteamID, p.Slot, p.PartyID, p.IsLeaver)
		if err != nil {
			return rows, fmt.Errorf("upsert player for match %d hero %d: %w", p.MatchID, p.HeroID, err)
		}
		rows++
	}

	for _, d := range nm.Draft {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO match_draft (match_id, hero_id, draft_type, draft_order, is_random, by_steam_id) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (match_id, hero_id, draft_type) DO UPDATE SET
				draft_order = excluded.draft_order, is_random = excluded.is_random, by_steam_id = excluded.by_steam_id`,
			d.MatchID, d.HeroID, string(d.DraftType), d.Order, d.IsRandom, d.BySteamID)
		if err != nil {
			return rows, fmt.Errorf("upsert draft entry for match %d hero %d: %w", d.MatchID, d.HeroID, err)
		}
		rows++
	}

	for _, mv := range nm.Movements {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO match_hero_movement (match_id, hero_id, id, time, x, y) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (match_id, hero_id, id) DO UPDATE SET time = excluded.time, x = excluded.x, y = excluded.y`,
			mv.MatchID, mv.HeroID, mv.ID, mv.Time, mv.X, mv.Y)
		if err != nil {
			return rows, fmt.Errorf("upsert movement for match %d hero %d: %w", mv.MatchID, mv.HeroID, err)
		}
		rows++
	}

	for _, ev := range nm.Events {
		var extra interface{}
		if len(ev.Extra) > 0 {
			encoded, err := json.Marshal(ev.Extra)
			if err != nil {
				return rows, fmt.Errorf("encode event extra for match %d: %w", ev.MatchID, err)
			}
			extra = string(encoded)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO match_event (match_id, id, event_type, time, x, y, hero_id, npc_id, ability_id, item_id, extra_data)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (match_id, id) DO UPDATE SET
				event_type = excluded.event_type, time = excluded.time, x = excluded.x, y = excluded.y,
				hero_id = excluded.hero_id, npc_id = excluded.npc_id, ability_id = excluded.ability_id,
				item_id = excluded.item_id, extra_data = excluded.extra_data`,
			ev.MatchID, ev.SequenceID, string(ev.EventType), ev.Time, ev.X, ev.Y, ev.HeroID, ev.NpcID, ev.AbilityID, ev.ItemID, extra)
		if err != nil {
			return rows, fmt.Errorf("upsert event %d for match %d: %w", ev.SequenceID, ev.MatchID, err)
		}
		rows++
	}

	return rows, nil
}

func upsertTournament(ctx context.Context, tx *sql.Tx, t models.Tournament) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO tournament (league_id, league_name, league_start_date, league_end_date, tier, prize_pool)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (league_id) DO UPDATE SET
			league_name = excluded.league_name, league_start_date = excluded.league_start_date,
			league_end_date = excluded.league_end_date, tier = excluded.tier, prize_pool = excluded.prize_pool`,
		t.LeagueID, t.LeagueName, t.StartDate.Unix(), t.EndDate.Unix(), t.Tier, t.PrizePool)
	if err != nil {
		return fmt.Errorf("upsert tournament %d: %w", t.LeagueID, err)
	}
	return nil
}

func upsertTeam(ctx context.Context, tx *sql.Tx, t models.CompetitiveTeam) error {
	var created interface{}
	if t.Created != nil {
		created = t.Created.Unix()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO competitive_team (team_id, team_name, team_tag, country_code, created) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (team_id) DO UPDATE SET
			team_name = excluded.team_name, team_tag = excluded.team_tag,
			country_code = excluded.country_code, created = excluded.created`,
		t.TeamID, t.TeamName, t.TeamTag, t.CountryCode, created)
	if err != nil {
		return fmt.Errorf("upsert team %d: %w", t.TeamID, err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ReadMatch reassembles one normalized match from its rows. Used by the
// reconciliation tooling and tests; dimension rows not reachable from
// the match row itself (hero, item, patch) are not included.
func (s *Store) ReadMatch(ctx context.Context, matchID int64) (*models.NormalizedMatch, error) {
	nm := &models.NormalizedMatch{}

	m := &nm.Match
	var startUnix int64
	err := s.db.QueryRowContext(ctx, `
		SELECT match_id, replay_salt, patch_id, league_id, series_id, radiant_team_id, dire_team_id,
			start_datetime, is_ranked, winning_faction, duration, region, lobby_type, game_mode
		FROM match WHERE match_id = ?`, matchID).Scan(
		&m.MatchID, &m.ReplaySalt, &m.PatchID, &m.LeagueID, &m.SeriesID, &m.RadiantTeamID, &m.DireTeamID,
		&startUnix, &m.IsRanked, &m.WinningFaction, &m.DurationSeconds, &m.Region, &m.LobbyType, &m.GameMode)
	if err != nil {
		return nil, fmt.Errorf("read match %d: %w", matchID, err)
	}
	m.StartTime = time.Unix(startUnix, 0).UTC()

	if m.LeagueID != nil {
		t := &models.Tournament{}
		var startDate, endDate int64
		err := s.db.QueryRowContext(ctx, `
			SELECT league_id, league_name, league_start_date, league_end_date, tier, prize_pool
			FROM tournament WHERE league_id = ?`, *m.LeagueID).Scan(
			&t.LeagueID, &t.LeagueName, &startDate, &endDate, &t.Tier, &t.PrizePool)
		switch err {
		case nil:
			t.StartDate = time.Unix(startDate, 0).UTC()
			t.EndDate = time.Unix(endDate, 0).UTC()
			nm.Tournament = t
		case sql.ErrNoRows:
		default:
			return nil, fmt.Errorf("read tournament %d: %w", *m.LeagueID, err)
		}
	}

	for _, teamID := range []*int64{m.RadiantTeamID, m.DireTeamID} {
		if teamID == nil {
			continue
		}
		team := models.CompetitiveTeam{}
		var created *int64
		err := s.db.QueryRowContext(ctx, `
			SELECT team_id, team_name, team_tag, country_code, created
			FROM competitive_team WHERE team_id = ?`, *teamID).Scan(
			&team.TeamID, &team.TeamName, &team.TeamTag, &team.CountryCode, &created)
		switch err {
		case nil:
			if created != nil {
				at := time.Unix(*created, 0).UTC()
				team.Created = &at
			}
			nm.Teams = append(nm.Teams, team)
		case sql.ErrNoRows:
		default:
			return nil, fmt.Errorf("read team %d: %w", *teamID, err)
		}
	}

	if err := s.readPlayers(ctx, nm); err != nil {
		return nil, err
	}
	if err := s.readDraft(ctx, nm); err != nil {
		return nil, err
	}
	if err := s.readMovements(ctx, nm); err != nil {
		return nil, err
	}
	if err := s.readEvents(ctx, nm); err != nil {
		return nil, err
	}
	return nm, nil
}

func (s *Store) readPlayers(ctx context.Context, nm *models.NormalizedMatch) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id, hero_id, steam_id, slot, party_id, is_leaver
		FROM match_player WHERE match_id = ? ORDER BY slot`, nm.Match.MatchID)
	if err != nil {
		return fmt.Errorf("read players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p := models.MatchPlayer{}
		if err := rows.Scan(&p.MatchID, &p.HeroID, &p.SteamID, &p.Slot, &p.PartyID, &p.IsLeaver); err != nil {
			return fmt.Errorf("scan player: %w", err)
		}
		nm.Players = append(nm.Players, p)

		if p.SteamID != nil {
			a := models.Account{}
			err := s.db.QueryRowContext(ctx, `SELECT steam_id, steam_name FROM account WHERE steam_id = ?`, *p.SteamID).
				Scan(&a.SteamID, &a.SteamName)
			switch err {
			case nil:
				nm.Accounts = append(nm.Accounts, a)
			case sql.ErrNoRows:
			default:
				return fmt.Errorf("read account %d: %w", *p.SteamID, err)
			}
		}
	}
	return rows.Err()
}

func (s *Store) readDraft(ctx context.Context, nm *models.NormalizedMatch) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id, hero_id, draft_type, draft_order, is_random, by_steam_id
		FROM match_draft WHERE match_id = ? ORDER BY draft_order`, nm.Match.MatchID)
	if err != nil {
		return fmt.Errorf("read draft: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d := models.DraftEntry{}
		var draftType string
		if err := rows.Scan(&d.MatchID, &d.HeroID, &draftType, &d.Order, &d.IsRandom, &d.BySteamID); err != nil {
			return fmt.Errorf("scan draft entry: %w", err)
		}
		d.DraftType = models.DraftType(draftType)
		nm.Draft = append(nm.Draft, d)
	}
	return rows.Err()
}

func (s *Store) readMovements(ctx context.Context, nm *models.NormalizedMatch) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id, hero_id, id, time, x, y
		FROM match_hero_movement WHERE match_id = ? ORDER BY hero_id, id`, nm.Match.MatchID)
	if err != nil {
		return fmt.Errorf("read movements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		mv := models.HeroMovement{}
		if err := rows.Scan(&mv.MatchID, &mv.HeroID, &mv.ID, &mv.Time, &mv.X, &mv.Y); err != nil {
			return fmt.Errorf("scan movement: %w", err)
		}
		nm.Movements = append(nm.Movements, mv)
	}
	return rows.Err()
}

func (s *Store) readEvents(ctx context.Context, nm *models.NormalizedMatch) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id, id, event_type, time, x, y, hero_id, npc_id, ability_id, item_id, extra_data
		FROM match_event WHERE match_id = ? ORDER BY id`, nm.Match.MatchID)
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ev := models.MatchEvent{}
		var eventType string
		var extra *string
		if err := rows.Scan(&ev.MatchID, &ev.SequenceID, &eventType, &ev.Time, &ev.X, &ev.Y,
			&ev.HeroID, &ev.NpcID, &ev.AbilityID, &ev.ItemID, &extra); err != nil {
			return fmt.Errorf("scan event: %w", err)
		}
		ev.EventType = models.EventType(eventType)
		if extra != nil {
			if err := json.Unmarshal([]byte(*extra), &ev.Extra); err != nil {
				return fmt.Errorf("decode event extra: %w", err)
			}
		}
		nm.Events = append(nm.Events, ev)
	}
	return rows.Err()
}
