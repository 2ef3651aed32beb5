package player

import (
	"fmt"

	"github.com/riskibarqy/matchmaker/internal/platform/geo"
)

const (
	MinLevel = 1
	MaxLevel = 8
)

// Side is the preferred court side.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
	SideBoth  Side = "both"
)

// Player is a group member profile. Owned by the account system; the engine only reads it.
type Player struct {
	ID              string
	GroupID         string
	Name            string
	Level           int
	Side            Side
	Home            *geo.Coordinate
	Work            *geo.Coordinate
	ZoneID          string
	AcceptedClubIDs []string
}

// Location returns the home coordinate, falling back to work.
func (p Player) Location() (geo.Coordinate, bool) {
	if p.Home != nil {
		return *p.Home, true
	}
	if p.Work != nil {
		return *p.Work, true
	}
	return geo.Coordinate{}, false
}

func (p Player) AcceptsClub(clubID string) bool {
	for _, id := range p.AcceptedClubIDs {
		if id == clubID {
			return true
		}
	}
	return false
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.Level < MinLevel || p.Level > MaxLevel {
		return fmt.Errorf("player level must be between %d and %d: %d", MinLevel, MaxLevel, p.Level)
	}
	return nil
}

// Snapshot is a read-only profile map handed to pipeline stages.
type Snapshot map[string]Player

func NewSnapshot(players []Player) Snapshot {
	out := make(Snapshot, len(players))
	for _, p := range players {
		out[p.ID] = p
	}
	return out
}
