package matching

import (
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/availability"
	"github.com/riskibarqy/matchmaker/internal/domain/player"
	"github.com/riskibarqy/matchmaker/internal/domain/timeslot"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

// ProposeInput is a consistent snapshot of everything a proposal pass reads.
type ProposeInput struct {
	Week        timerange.Range
	Now         time.Time
	Location    *time.Location
	RequesterID string
	Profiles    player.Snapshot
	ZoneClubIDs []string
	Intervals   []availability.Interval
	Slots       []timeslot.TimeSlot
	Bookings    []Booking
	Filters     Filters
}

// Proposals is the output consumed by the UI.
type Proposals struct {
	ReadyShort []CandidateSlot
	ReadyLong  []CandidateSlot
	Hot        []CandidateSlot
}

// Propose runs generation, conflict removal, filters and hot detection.
func Propose(in ProposeInput) Proposals {
	index := NewAvailabilityIndex(in.Intervals)
	resolver := NewConflictResolver(in.Bookings, in.Location)
	pipeline := NewPipeline(in.Profiles, in.RequesterID, in.ZoneClubIDs, in.Filters)

	candidates := Generate(GenerateInput{
		Week:        in.Week,
		Now:         in.Now,
		RequesterID: in.RequesterID,
		Index:       index,
		Slots:       in.Slots,
		Bookings:    in.Bookings,
	})

	var out Proposals
	preFilter := make([]CandidateSlot, 0, len(candidates))
	for _, c := range candidates {
		eligible := resolver.Exclude(c.Eligible, c.Window)
		filtered, ok := pipeline.LevelGeo(eligible)
		if !ok {
			continue
		}
		c.Eligible = filtered
		preFilter = append(preFilter, c)

		if filtered.Len() < ReadySize {
			continue
		}
		group, clubs, ok := pipeline.ZoneClub(filtered)
		if !ok {
			continue
		}
		ready := c
		ready.Eligible = group
		ready.ClubIDs = clubs
		if ready.Class == DurationLong {
			out.ReadyLong = append(out.ReadyLong, ready)
		} else {
			out.ReadyShort = append(out.ReadyShort, ready)
		}
	}

	out.Hot = DetectHot(HotInput{
		Candidates:  preFilter,
		Bookings:    in.Bookings,
		RequesterID: in.RequesterID,
		Week:        in.Week,
		Now:         in.Now,
		Pipeline:    pipeline,
	})
	return out
}
