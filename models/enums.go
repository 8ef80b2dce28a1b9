package models

import "fmt"

// UnknownEnumValueError is returned when a provider code has no entry in
// the corresponding lookup table. Defaulting would silently corrupt the
// record, so the match carrying the code is skipped instead.
type UnknownEnumValueError struct {
	Kind string
	Code int
}

func (e *UnknownEnumValueError) Error() string {
	return fmt.Sprintf("unknown %s code %d", e.Kind, e.Code)
}

var regions = map[int]string{
	0: "UNDEFINED", 1: "US West", 2: "US East", 3: "Europe West",
	5: "SE Asia", 6: "Dubai", 7: "Australia", 8: "Stockholm",
	9: "Austria", 10: "Brazil", 11: "South Africa", 12: "China",
	13: "China", 14: "Chile", 15: "Peru", 16: "India",
	17: "China", 18: "China", 19: "Japan", 20: "China",
	25: "China", 37: "Taiwan",
}

var lobbyTypes = map[int]string{
	0: "Normal", 1: "Practice", 2: "Tournament",
	3: "Tutorial", 4: "Co-op Bots", 5: "Team Matchmaking",
	6: "Solo Matchmaking", 7: "Ranked", 8: "1v1 Mid",
	9: "Battle Cup",
}

var gameModes = map[int]string{
	0: "Unknown", 1: "All Pick", 2: "Captains Mode",
	3: "Random Draft", 4: "Single Draft", 5: "All Random",
	12: "Least Played", 16: "Captains Draft", 17: "Balanced Draft",
	22: "All Draft",
}

// RegionName translates a provider region code into its canonical label.
func RegionName(code int) (string, error) {
	name, ok := regions[code]
	if !ok {
		return "", &UnknownEnumValueError{Kind: "region", Code: code}
	}
	return name, nil
}

// LobbyTypeName translates a provider lobby-type code into its canonical label.
func LobbyTypeName(code int) (string, error) {
	name, ok := lobbyTypes[code]
	if !ok {
		return "", &UnknownEnumValueError{Kind: "lobby type", Code: code}
	}
	return name, nil
}

// GameModeName translates a provider game-mode code into its canonical label.
func GameModeName(code int) (string, error) {
	name, ok := gameModes[code]
	if !ok {
		return "", &UnknownEnumValueError{Kind: "game mode", Code: code}
	}
	return name, nil
}
