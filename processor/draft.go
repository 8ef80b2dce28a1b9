package processor

import "darkseer/models"

// deriveDraft maps the raw pick/ban list onto draft entries.
//
// A ban action records the banned hero when present and falls back to
// the picked hero id. The label derivation: a pick is always "pick"; a
// ban with no acting player index was issued by the game itself and
// gains the "system generated" prefix; a ban that was not successfully
// executed was only a vote and gains the " vote" suffix.
func deriveDraft(matchID int64, pickBans []models.RawPickBan, players []models.RawMatchPlayer) []models.DraftEntry {
	entries := make([]models.DraftEntry, 0, len(pickBans))
	for _, pb := range pickBans {
		heroID, ok := draftHeroID(pb)
		if !ok {
			continue
		}

		entries = append(entries, models.DraftEntry{
			MatchID:   matchID,
			HeroID:    heroID,
			DraftType: draftType(pb),
			Order:     pb.Order,
			IsRandom:  pb.IsPick && pb.PlayerIndex != nil && actorIsRandom(*pb.PlayerIndex, players),
			BySteamID: draftActor(pb.PlayerIndex, players),
		})
	}
	return entries
}

func draftHeroID(pb models.RawPickBan) (int, bool) {
	if pb.BannedHeroID != nil {
		return *pb.BannedHeroID, true
	}
	if pb.HeroID != nil {
		return *pb.HeroID, true
	}
	return 0, false
}

func draftType(pb models.RawPickBan) models.DraftType {
	if pb.IsPick {
		return models.DraftPick
	}
	switch {
	case pb.PlayerIndex == nil && !pb.WasBannedSuccessfully:
		return models.DraftSystemBanVote
	case pb.PlayerIndex == nil:
		return models.DraftSystemBan
	case !pb.WasBannedSuccessfully:
		return models.DraftBanVote
	default:
		return models.DraftBan
	}
}

func draftActor(playerIndex *int, players []models.RawMatchPlayer) *int64 {
	if playerIndex == nil || *playerIndex < 0 || *playerIndex >= len(players) {
		return nil
	}
	return players[*playerIndex].SteamAccountID
}

func actorIsRandom(playerIndex int, players []models.RawMatchPlayer) bool {
	if playerIndex < 0 || playerIndex >= len(players) {
		return false
	}
	p := players[playerIndex]
	return p.IsRandom != nil && *p.IsRandom
}
