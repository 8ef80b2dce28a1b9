package processor

import (
	"sort"
	"strconv"
	"strings"

	"darkseer/models"
)

// classifyEvents merges every raw activity sub-stream of every player
// into one per-match event list. After mapping, the list is sorted by
// (event type, time) and given dense sequence ids from 0, so repeated
// normalization of the same payload assigns identical ids.
func (n *Normalizer) classifyEvents(matchID int64, players []models.RawMatchPlayer) []models.MatchEvent {
	var events []models.MatchEvent
	for _, p := range players {
		events = append(events, n.playerEvents(matchID, p.HeroID, p.PlaybackData)...)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].EventType != events[j].EventType {
			return events[i].EventType < events[j].EventType
		}
		return events[i].Time < events[j].Time
	})
	for i := range events {
		events[i].SequenceID = i
	}
	return events
}

func (n *Normalizer) playerEvents(matchID int64, heroID int, pb *models.RawPlaybackData) []models.MatchEvent {
	var events []models.MatchEvent
	base := func(eventType models.EventType, t int) models.MatchEvent {
		h := heroID
		return models.MatchEvent{
			MatchID:   matchID,
			EventType: eventType,
			Time:      t,
			HeroID:    &h,
		}
	}

	for _, e := range pb.AbilityLearnEvents {
		ev := base(models.EventAbilityLearn, e.Time)
		ev.AbilityID = intPtr(e.AbilityID)
		if e.LevelObtained != nil {
			ev.Extra = map[string]string{"level": strconv.Itoa(*e.LevelObtained)}
		}
		events = append(events, ev)
	}

	for _, e := range pb.AbilityUsedEvents {
		ev := base(models.EventAbilityUse, e.Time)
		ev.AbilityID = intPtr(e.AbilityID)
		if e.TargetHeroID != nil {
			ev.Extra = map[string]string{"target_hero": strconv.Itoa(*e.TargetHeroID)}
		}
		events = append(events, ev)
	}

	for _, e := range pb.PurchaseEvents {
		ev := base(models.EventItemPurchase, e.Time)
		ev.ItemID = intPtr(e.ItemID)
		events = append(events, ev)
	}

	for _, e := range pb.ItemUsedEvents {
		ev := base(models.EventItemUse, e.Time)
		ev.ItemID = intPtr(e.ItemID)
		if e.TargetHeroID != nil {
			ev.Extra = map[string]string{"target_hero": strconv.Itoa(*e.TargetHeroID)}
		}
		events = append(events, ev)
	}

	for _, e := range pb.KillEvents {
		ev := base(models.EventKill, e.Time)
		ev.X, ev.Y = intPtr(e.X), intPtr(e.Y)
		if e.TargetHeroID != nil {
			ev.Extra = map[string]string{"target_hero": strconv.Itoa(*e.TargetHeroID)}
		}
		events = append(events, ev)
	}

	for _, e := range pb.DeathEvents {
		ev := base(models.EventDeath, e.Time)
		ev.X, ev.Y = intPtr(e.X), intPtr(e.Y)
		extra := make(map[string]string)
		if e.AttackerHeroID != nil {
			extra["attacker_hero"] = strconv.Itoa(*e.AttackerHeroID)
		}
		if e.GoldLost != nil {
			extra["gold_lost"] = strconv.Itoa(*e.GoldLost)
		}
		if len(extra) > 0 {
			ev.Extra = extra
		}
		events = append(events, ev)
	}

	for _, e := range pb.AssistEvents {
		ev := base(models.EventAssist, e.Time)
		ev.X, ev.Y = intPtr(e.X), intPtr(e.Y)
		if e.TargetHeroID != nil {
			ev.Extra = map[string]string{"target_hero": strconv.Itoa(*e.TargetHeroID)}
		}
		events = append(events, ev)
	}

	for _, e := range pb.CsEvents {
		ev := base(n.csEventType(e), e.Time)
		ev.X, ev.Y = intPtr(e.X), intPtr(e.Y)
		ev.NpcID = intPtr(e.NpcID)
		events = append(events, ev)
	}

	for _, e := range pb.BuyBackEvents {
		ev := base(models.EventBuyback, e.Time)
		if e.Cost != nil {
			ev.Extra = map[string]string{"cost": strconv.Itoa(*e.Cost)}
		}
		events = append(events, ev)
	}

	for _, e := range pb.WardEvents {
		eventType := models.EventWardDestroyed
		if strings.EqualFold(e.Action, "spawn") {
			eventType = models.EventWardPlaced
		}
		ev := base(eventType, e.Time)
		ev.X, ev.Y = intPtr(e.X), intPtr(e.Y)
		ev.Extra = map[string]string{"ward_type": e.WardType}
		events = append(events, ev)
	}

	for _, e := range pb.RuneEvents {
		eventType := models.EventRuneTaken
		if strings.EqualFold(e.Action, "spawn") {
			eventType = models.EventRuneSpawn
		}
		ev := base(eventType, e.Time)
		ev.X, ev.Y = intPtr(e.X), intPtr(e.Y)
		ev.Extra = map[string]string{"rune": strconv.Itoa(e.RuneType)}
		events = append(events, ev)
	}

	for _, e := range pb.GoldEvents {
		ev := base(models.EventGoldChange, e.Time)
		ev.Extra = map[string]string{"delta": strconv.Itoa(e.Delta)}
		events = append(events, ev)
	}

	for _, e := range pb.ExperienceEvents {
		ev := base(models.EventExperienceChange, e.Time)
		ev.Extra = map[string]string{"delta": strconv.Itoa(e.Delta)}
		events = append(events, ev)
	}

	return events
}

// csEventType classifies a non-hero-unit interaction by the target's
// numeric id range.
func (n *Normalizer) csEventType(e models.RawCsEvent) models.EventType {
	switch n.targets.Classify(e.NpcID) {
	case models.TargetBuilding:
		return models.EventBuildingDeath
	case models.TargetCourier:
		return models.EventCourierDeath
	case models.TargetWard:
		return models.EventWardDestroyed
	case models.TargetRoshan:
		return models.EventRoshanDeath
	default:
		if e.IsDeny {
			return models.EventCreepDeny
		}
		return models.EventCreepKill
	}
}

func intPtr(v int) *int { return &v }
