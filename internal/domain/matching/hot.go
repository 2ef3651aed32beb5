package matching

import (
	"time"

	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

// HotInput feeds DetectHot.
type HotInput struct {
	// Candidates must already be conflict-resolved and level/geo filtered.
	Candidates  []CandidateSlot
	Bookings    []Booking
	RequesterID string
	Week        timerange.Range
	Now         time.Time
	Pipeline    Pipeline
}

// DetectHot returns slots exactly one seat short of ready, deduplicated by window.
// Existing sessions win over generated candidates for the same window.
func DetectHot(in HotInput) []CandidateSlot {
	byWindow := make(map[string]CandidateSlot)
	order := make([]string, 0)
	put := func(c CandidateSlot, override bool) {
		key := c.Window.Key()
		if _, exists := byWindow[key]; exists && !override {
			return
		}
		if _, exists := byWindow[key]; !exists {
			order = append(order, key)
		}
		byWindow[key] = c
	}

	for _, b := range in.Bookings {
		if !b.Window.Valid() || !b.Window.Start.After(in.Now) || !b.Window.Overlaps(in.Week) {
			continue
		}
		if b.StatusOf(in.RequesterID) != "" {
			continue
		}
		accepted := b.Accepted()
		if accepted.Len() != HotSize {
			continue
		}
		if !in.Pipeline.LevelGeoAll(accepted) {
			continue
		}
		put(CandidateSlot{
			Ref:       Persisted(b.Session.TimeSlotID),
			SessionID: b.Session.ID,
			Window:    b.Window,
			Class:     ClassOf(b.Window.Duration()),
			Eligible:  accepted,
			ClubIDs:   clubOf(b),
		}, true)
	}

	for _, c := range in.Candidates {
		if c.Eligible.Len() != HotSize || !c.Eligible.Has(in.RequesterID) {
			continue
		}
		put(c, false)
	}

	out := make([]CandidateSlot, 0, len(order))
	for _, key := range order {
		out = append(out, byWindow[key])
	}
	SortSlots(out)
	return out
}

func clubOf(b Booking) []string {
	if b.Session.ClubID == "" {
		return nil
	}
	return []string{b.Session.ClubID}
}
