package matching

import (
	"sort"
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/availability"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

// AvailabilityIndex answers "who covers this whole window" from one flat interval list.
// It is immutable after construction and safe for concurrent reads, so the same index
// serves both 60 and 90 minute windows without refetching.
type AvailabilityIndex struct {
	byUser map[string][]timerange.Range
	users  []string
}

func NewAvailabilityIndex(intervals []availability.Interval) *AvailabilityIndex {
	byUser := make(map[string][]timerange.Range)
	for _, item := range intervals {
		if !item.Usable() {
			continue
		}
		byUser[item.UserID] = append(byUser[item.UserID], item.Range())
	}

	users := make([]string, 0, len(byUser))
	for userID, ranges := range byUser {
		sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start.Before(ranges[j].Start) })
		users = append(users, userID)
	}
	sort.Strings(users)

	return &AvailabilityIndex{byUser: byUser, users: users}
}

// CoveringAll returns the players whose availability covers every tick of window.
// Ticks are visited once in order and the scan stops as soon as nobody is left.
func (x *AvailabilityIndex) CoveringAll(window timerange.Range) PlayerSet {
	ticks := window.Ticks()
	if len(ticks) == 0 {
		return PlayerSet{}
	}

	var running PlayerSet
	for i, tick := range ticks {
		present := x.coveringTick(tick)
		if i == 0 {
			running = present
		} else {
			running = running.Intersect(present)
		}
		if running.Len() == 0 {
			return running
		}
	}

	return running
}

func (x *AvailabilityIndex) coveringTick(tick timerange.Range) PlayerSet {
	out := make(PlayerSet)
	for _, userID := range x.users {
		for _, r := range x.byUser[userID] {
			if r.Start.After(tick.Start) {
				break
			}
			if r.Contains(tick) {
				out[userID] = struct{}{}
				break
			}
		}
	}
	return out
}

// TickStarts lists every tick boundary that starts inside some available interval,
// clipped to bounds, ascending and unique.
func (x *AvailabilityIndex) TickStarts(bounds timerange.Range) []time.Time {
	if !bounds.Valid() {
		return nil
	}

	seen := make(map[int64]time.Time)
	for _, userID := range x.users {
		for _, r := range x.byUser[userID] {
			clipped := r.Clip(bounds)
			if !clipped.Valid() {
				continue
			}
			for t := timerange.AlignUp(clipped.Start); t.Before(clipped.End); t = t.Add(timerange.TickSize) {
				seen[t.UnixNano()] = t
			}
		}
	}

	out := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
