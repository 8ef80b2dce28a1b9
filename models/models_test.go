package models

import (
	"errors"
	"testing"
)

func TestLobbyTypeName(t *testing.T) {
	name, err := LobbyTypeName(7)
	if err != nil {
		t.Fatalf("LobbyTypeName(7): %v", err)
	}
	if name != "Ranked" {
		t.Errorf("LobbyTypeName(7) = %q, want %q", name, "Ranked")
	}
}

func TestUnknownEnumValue(t *testing.T) {
	cases := []struct {
		name string
		fn   func(int) (string, error)
		code int
	}{
		{"region", RegionName, 99},
		{"lobby type", LobbyTypeName, 99},
		{"game mode", GameModeName, 99},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := c.fn(c.code)
			if err == nil {
				t.Fatalf("expected error for code %d", c.code)
			}
			var enumErr *UnknownEnumValueError
			if !errors.As(err, &enumErr) {
				t.Fatalf("expected UnknownEnumValueError, got %T", err)
			}
			if enumErr.Kind != c.name || enumErr.Code != c.code {
				t.Errorf("unexpected error contents: %+v", enumErr)
			}
		})
	}
}

func TestRegionName(t *testing.T) {
	cases := []struct {
		code int
		want string
	}{
		{1, "US West"},
		{3, "Europe West"},
		{37, "Taiwan"},
	}
	for _, c := range cases {
		got, err := RegionName(c.code)
		if err != nil {
			t.Fatalf("RegionName(%d): %v", c.code, err)
		}
		if got != c.want {
			t.Errorf("RegionName(%d) = %q, want %q", c.code, got, c.want)
		}
	}
}

func TestTargetTableClassify(t *testing.T) {
	cases := []struct {
		npcID int
		want  TargetClass
	}{
		{0, TargetBuilding},
		{42, TargetBuilding},
		{99, TargetBuilding},
		{100, TargetCourier},
		{110, TargetWard},
		{119, TargetWard},
		{133, TargetRoshan},
		{120, TargetCreep},
		{5021, TargetCreep},
	}
	for _, c := range cases {
		if got := DefaultTargetTable.Classify(c.npcID); got != c.want {
			t.Errorf("Classify(%d) = %v, want %v", c.npcID, got, c.want)
		}
	}
}
