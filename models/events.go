package models

// EventType is the closed set of canonical match event kinds. Every raw
// activity sub-stream maps onto exactly one of these.
type EventType string

const (
	EventAbilityLearn     EventType = "ability_learn"
	EventAbilityUse       EventType = "ability_use"
	EventItemPurchase     EventType = "item_purchase"
	EventItemUse          EventType = "item_use"
	EventKill             EventType = "kill"
	EventDeath            EventType = "death"
	EventAssist           EventType = "assist"
	EventCreepKill        EventType = "creep_kill"
	EventCreepDeny        EventType = "creep_deny"
	EventGoldChange       EventType = "gold_change"
	EventExperienceChange EventType = "experience_change"
	EventBuyback          EventType = "buyback"
	EventCourierDeath     EventType = "courier_death"
	EventWardPlaced       EventType = "ward_placed"
	EventWardDestroyed    EventType = "ward_destroyed"
	EventRoshanDeath      EventType = "roshan_death"
	EventBuildingDeath    EventType = "building_death"
	EventRuneSpawn        EventType = "rune_spawn"
	EventRuneTaken        EventType = "rune_taken"
)

// TargetClass is the kind of non-hero unit on the receiving end of a
// unit-interaction event.
type TargetClass int

const (
	TargetCreep TargetClass = iota
	TargetBuilding
	TargetWard
	TargetCourier
	TargetRoshan
)

// TargetRange maps a contiguous provider unit-id range onto a target class.
type TargetRange struct {
	Min   int
	Max   int
	Class TargetClass
}

// TargetTable classifies non-hero unit ids. The ranges are reverse
// engineered from the provider's unit constants and drift with game
// updates, so the table carries the patch line it was verified against
// and is swappable as a whole rather than edited in place.
type TargetTable struct {
	Version string
	Ranges  []TargetRange
}

// Classify returns the target class for a unit id. Ids outside every
// known range are lane, neutral or summoned creeps, which the provider
// allocates above the fixed unit block.
func (t *TargetTable) Classify(npcID int) TargetClass {
	for _, r := range t.Ranges {
		if npcID >= r.Min && npcID <= r.Max {
			return r.Class
		}
	}
	return TargetCreep
}

// DefaultTargetTable is the unit-id table verified against the 7.30
// patch line.
var DefaultTargetTable = &TargetTable{
	Version: "7.30",
	Ranges: []TargetRange{
		{Min: 0, Max: 99, Class: TargetBuilding},
		{Min: 100, Max: 109, Class: TargetCourier},
		{Min: 110, Max: 119, Class: TargetWard},
		{Min: 130, Max: 139, Class: TargetRoshan},
	},
}
