package memory

import (
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/availability"
	"github.com/riskibarqy/matchmaker/internal/domain/club"
	"github.com/riskibarqy/matchmaker/internal/domain/player"
	"github.com/riskibarqy/matchmaker/internal/platform/geo"
)

const (
	GroupIDDemo     = "grp-demo"
	ZoneIDSouthJKT  = "zone-jkt-south"
	ZoneIDCentralJK = "zone-jkt-central"
)

func SeedClubs() []club.Club {
	return []club.Club{
		{ID: "club-senayan", ZoneID: ZoneIDCentralJK, Name: "Senayan Padel"},
		{ID: "club-kemang", ZoneID: ZoneIDSouthJKT, Name: "Kemang Padel Club"},
		{ID: "club-cilandak", ZoneID: ZoneIDSouthJKT, Name: "Cilandak Courts"},
		{ID: "club-pondok-indah", ZoneID: ZoneIDSouthJKT, Name: "Pondok Indah Padel"},
	}
}

func SeedPlayers() []player.Player {
	kemang := &geo.Coordinate{Lat: -6.2607, Lon: 106.8137}
	cilandak := &geo.Coordinate{Lat: -6.2912, Lon: 106.7990}
	sudirman := &geo.Coordinate{Lat: -6.2146, Lon: 106.8227}

	return []player.Player{
		{ID: "usr-andi", GroupID: GroupIDDemo, Name: "Andi", Level: 4, Side: player.SideRight, Home: kemang, ZoneID: ZoneIDSouthJKT, AcceptedClubIDs: []string{"club-kemang", "club-cilandak"}},
		{ID: "usr-budi", GroupID: GroupIDDemo, Name: "Budi", Level: 4, Side: player.SideLeft, Home: cilandak, ZoneID: ZoneIDSouthJKT, AcceptedClubIDs: []string{"club-kemang", "club-cilandak", "club-pondok-indah"}},
		{ID: "usr-citra", GroupID: GroupIDDemo, Name: "Citra", Level: 5, Side: player.SideBoth, Work: sudirman, ZoneID: ZoneIDSouthJKT, AcceptedClubIDs: []string{"club-kemang"}},
		{ID: "usr-dewi", GroupID: GroupIDDemo, Name: "Dewi", Level: 3, Side: player.SideRight, Home: kemang, ZoneID: ZoneIDSouthJKT, AcceptedClubIDs: []string{"club-kemang", "club-pondok-indah"}},
		{ID: "usr-eko", GroupID: GroupIDDemo, Name: "Eko", Level: 4, Side: player.SideLeft, Home: sudirman, ZoneID: ZoneIDCentralJK, AcceptedClubIDs: []string{"club-senayan"}},
		{ID: "usr-fajar", GroupID: GroupIDDemo, Name: "Fajar", Level: 6, Side: player.SideBoth, Home: cilandak, ZoneID: ZoneIDSouthJKT, AcceptedClubIDs: []string{"club-cilandak", "club-kemang"}},
	}
}

// SeedAvailability gives every demo player weekday evenings for the seven days after from.
func SeedAvailability(from time.Time, loc *time.Location) []availability.Interval {
	if loc == nil {
		loc = time.UTC
	}
	evenings := map[string][2]int{
		"usr-andi":  {18, 22},
		"usr-budi":  {18, 21},
		"usr-citra": {19, 22},
		"usr-dewi":  {18, 20},
		"usr-eko":   {19, 21},
		"usr-fajar": {20, 22},
	}

	day := time.Date(from.In(loc).Year(), from.In(loc).Month(), from.In(loc).Day(), 0, 0, 0, 0, loc)
	out := make([]availability.Interval, 0, len(evenings)*7)
	for i := 0; i < 7; i++ {
		d := day.AddDate(0, 0, i)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		for _, p := range SeedPlayers() {
			hours := evenings[p.ID]
			out = append(out, availability.Interval{
				GroupID: GroupIDDemo,
				UserID:  p.ID,
				Start:   d.Add(time.Duration(hours[0]) * time.Hour),
				End:     d.Add(time.Duration(hours[1]) * time.Hour),
				Status:  availability.StatusAvailable,
			})
		}
	}
	return out
}
