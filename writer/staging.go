package writer

import (
	"context"
	"fmt"

	"darkseer/models"
)

// StageIncomplete upserts a reparse tombstone. Staging the same match id
// again overwrites the previous tombstone, never duplicates it.
func (s *Store) StageIncomplete(ctx context.Context, m models.IncompleteMatch) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incomplete_match (match_id, replay_salt) VALUES (?, ?)
		ON CONFLICT (match_id) DO UPDATE SET replay_salt = excluded.replay_salt`,
		m.MatchID, m.ReplaySalt)
	if err != nil {
		return fmt.Errorf("stage incomplete match %d: %w", m.MatchID, err)
	}
	return nil
}

// DeleteStaged removes a tombstone after the match normalized
// successfully.
func (s *Store) DeleteStaged(ctx context.Context, matchID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM incomplete_match WHERE match_id = ?`, matchID)
	if err != nil {
		return fmt.Errorf("delete staged match %d: %w", matchID, err)
	}
	return nil
}

// StagedMatches lists every tombstone awaiting re-fetch.
func (s *Store) StagedMatches(ctx context.Context) ([]models.IncompleteMatch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT match_id, replay_salt FROM incomplete_match ORDER BY match_id`)
	if err != nil {
		return nil, fmt.Errorf("list staged matches: %w", err)
	}
	defer rows.Close()

	var staged []models.IncompleteMatch
	for rows.Next() {
		var m models.IncompleteMatch
		if err := rows.Scan(&m.MatchID, &m.ReplaySalt); err != nil {
			return nil, fmt.Errorf("scan staged match: %w", err)
		}
		staged = append(staged, m)
	}
	return staged, rows.Err()
}
