package matching

import (
	"sort"

	"github.com/riskibarqy/matchmaker/internal/domain/player"
	"github.com/riskibarqy/matchmaker/internal/platform/geo"
)

// GeoFilter keeps players within RadiusKm of Center.
type GeoFilter struct {
	Center   geo.Coordinate
	RadiusKm float64
}

// Filters are the optional narrowing stages chosen by the requester.
type Filters struct {
	Levels []int
	Geo    *GeoFilter
}

// Pipeline runs the filter stages over read-only profile and club snapshots.
// Each stage narrows the output of the previous one.
type Pipeline struct {
	Profiles  player.Snapshot
	Requester player.Player
	// ZoneClubIDs are the clubs located in the requester's zone.
	ZoneClubIDs []string
	Filters     Filters
	Distance    func(a, b geo.Coordinate) float64
}

func NewPipeline(profiles player.Snapshot, requesterID string, zoneClubIDs []string, filters Filters) Pipeline {
	return Pipeline{
		Profiles:    profiles,
		Requester:   profiles[requesterID],
		ZoneClubIDs: append([]string(nil), zoneClubIDs...),
		Filters:     filters,
		Distance:    geo.DistanceKm,
	}
}

// LevelGeo applies the level and geography stages. The slot is dropped (ok=false)
// when the requester does not survive a stage.
func (p Pipeline) LevelGeo(set PlayerSet) (PlayerSet, bool) {
	if !set.Has(p.Requester.ID) {
		return nil, false
	}
	out := p.levelStage(set, true)
	if !out.Has(p.Requester.ID) {
		return nil, false
	}
	out = p.geoStage(out)
	if !out.Has(p.Requester.ID) {
		return nil, false
	}
	return out, true
}

// LevelGeoAll applies the same stages to players who are not the requester, e.g. the
// accepted players of an existing session. ok is false when anyone is filtered out.
func (p Pipeline) LevelGeoAll(set PlayerSet) bool {
	out := p.geoStage(p.levelStage(set, false))
	return out.Len() == set.Len()
}

func (p Pipeline) levelStage(set PlayerSet, exemptRequester bool) PlayerSet {
	if len(p.Filters.Levels) == 0 {
		return set.Clone()
	}
	allowed := make(map[int]struct{}, len(p.Filters.Levels))
	for _, lvl := range p.Filters.Levels {
		allowed[lvl] = struct{}{}
	}

	out := make(PlayerSet, len(set))
	for id := range set {
		if exemptRequester && id == p.Requester.ID {
			out[id] = struct{}{}
			continue
		}
		profile, ok := p.Profiles[id]
		if !ok {
			continue
		}
		if _, ok := allowed[profile.Level]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

func (p Pipeline) geoStage(set PlayerSet) PlayerSet {
	if p.Filters.Geo == nil {
		return set
	}
	distance := p.Distance
	if distance == nil {
		distance = geo.DistanceKm
	}

	out := make(PlayerSet, len(set))
	for id := range set {
		profile, ok := p.Profiles[id]
		if !ok {
			continue
		}
		loc, ok := profile.Location()
		if !ok {
			continue
		}
		if distance(loc, p.Filters.Geo.Center) <= p.Filters.Geo.RadiusKm {
			out[id] = struct{}{}
		}
	}
	return out
}

// ZoneClub keeps players in the requester's zone and finds the largest group of at
// least ReadySize sharing one club the requester accepts inside that zone. The
// returned clubs are the intersection of accepted clubs across that group.
func (p Pipeline) ZoneClub(set PlayerSet) (PlayerSet, []string, bool) {
	if !set.Has(p.Requester.ID) {
		return nil, nil, false
	}

	inZone := make(PlayerSet, len(set))
	for id := range set {
		profile, ok := p.Profiles[id]
		if !ok || profile.ZoneID == "" || profile.ZoneID != p.Requester.ZoneID {
			continue
		}
		inZone[id] = struct{}{}
	}
	if inZone.Len() < ReadySize {
		return nil, nil, false
	}

	zoneClubs := NewPlayerSet(p.ZoneClubIDs...)
	requesterClubs := make([]string, 0, len(p.Requester.AcceptedClubIDs))
	for _, clubID := range p.Requester.AcceptedClubIDs {
		if zoneClubs.Has(clubID) {
			requesterClubs = append(requesterClubs, clubID)
		}
	}
	sort.Strings(requesterClubs)

	var best PlayerSet
	for _, clubID := range requesterClubs {
		members := make(PlayerSet)
		for id := range inZone {
			if p.Profiles[id].AcceptsClub(clubID) {
				members[id] = struct{}{}
			}
		}
		if members.Len() > best.Len() {
			best = members
		}
	}
	if best.Len() < ReadySize || !best.Has(p.Requester.ID) {
		return nil, nil, false
	}

	common := NewPlayerSet(requesterClubs...)
	for id := range best {
		common = common.Intersect(NewPlayerSet(p.Profiles[id].AcceptedClubIDs...))
	}

	return best, common.Sorted(), true
}
