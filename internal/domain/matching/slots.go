package matching

import (
	"sort"
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/session"
	"github.com/riskibarqy/matchmaker/internal/domain/timeslot"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
	"github.com/sourcegraph/conc/iter"
)

const (
	ShortDuration = 60 * time.Minute
	LongDuration  = 90 * time.Minute

	// ReadySize is the number of players a session needs.
	ReadySize = 4
	// HotSize is one seat short of ReadySize.
	HotSize = ReadySize - 1
)

// DurationClass tags a candidate as a 60 or 90 minute session.
type DurationClass string

const (
	DurationShort DurationClass = "short"
	DurationLong  DurationClass = "long"
)

func (c DurationClass) Duration() time.Duration {
	if c == DurationLong {
		return LongDuration
	}
	return ShortDuration
}

// ClassOf maps a window length onto a duration class.
func ClassOf(d time.Duration) DurationClass {
	if d > ShortDuration {
		return DurationLong
	}
	return DurationShort
}

type RefKind string

const (
	RefPersisted RefKind = "persisted"
	RefVirtual   RefKind = "virtual"
)

// SlotRef identifies where a candidate came from. Only persisted refs take part
// in the (group, start) uniqueness constraint.
type SlotRef struct {
	Kind RefKind
	ID   string
}

func Persisted(id string) SlotRef {
	return SlotRef{Kind: RefPersisted, ID: id}
}

func Virtual(window timerange.Range) SlotRef {
	return SlotRef{Kind: RefVirtual, ID: "v:" + window.Key()}
}

// CandidateSlot is an engine-internal view over availability, sessions and profiles.
type CandidateSlot struct {
	Ref       SlotRef
	SessionID string
	Window    timerange.Range
	Class     DurationClass
	Eligible  PlayerSet
	ClubIDs   []string
}

// GenerateInput carries everything the slot universe is derived from.
type GenerateInput struct {
	Week        timerange.Range
	Now         time.Time
	RequesterID string
	Index       *AvailabilityIndex
	Slots       []timeslot.TimeSlot
	Bookings    []Booking
}

// Generate builds the candidate universe for one visible week: persisted slots first,
// then virtual 60/90 minute windows at every tick boundary inside someone's availability.
func Generate(in GenerateInput) []CandidateSlot {
	if !in.Week.Valid() || in.Index == nil {
		return nil
	}

	confirmed := confirmedWindows(in.Bookings, in.Now)
	out := make([]CandidateSlot, 0, len(in.Slots))
	taken := make(map[string]struct{})

	for _, slot := range in.Slots {
		window := slot.Range()
		if !window.Valid() || !window.End.After(in.Now) || !window.Overlaps(in.Week) {
			continue
		}
		if _, blocked := confirmed[slot.ID]; blocked {
			continue
		}
		class := ClassOf(window.Duration())
		key := string(class) + window.Key()
		if _, dup := taken[key]; dup {
			continue
		}
		taken[key] = struct{}{}
		out = append(out, CandidateSlot{
			Ref:      Persisted(slot.ID),
			Window:   window,
			Class:    class,
			Eligible: in.Index.CoveringAll(window),
		})
	}

	bounds := in.Week
	if in.Now.After(bounds.Start) {
		bounds.Start = in.Now
	}
	starts := in.Index.TickStarts(bounds)
	blockers := make([]timerange.Range, 0, len(confirmed))
	for _, w := range confirmed {
		blockers = append(blockers, w)
	}

	perTick := iter.Map(starts, func(start *time.Time) []CandidateSlot {
		return virtualAt(*start, in.RequesterID, in.Index, blockers)
	})
	for _, items := range perTick {
		for _, c := range items {
			key := string(c.Class) + c.Window.Key()
			if _, dup := taken[key]; dup {
				continue
			}
			taken[key] = struct{}{}
			out = append(out, c)
		}
	}

	SortSlots(out)
	return out
}

func virtualAt(start time.Time, requesterID string, index *AvailabilityIndex, blockers []timerange.Range) []CandidateSlot {
	var out []CandidateSlot
	for _, class := range []DurationClass{DurationShort, DurationLong} {
		window := timerange.New(start, class.Duration())
		if overlapsAny(window, blockers) {
			continue
		}
		eligible := index.CoveringAll(window)
		if !worthProposing(eligible, requesterID) {
			continue
		}
		out = append(out, CandidateSlot{
			Ref:      Virtual(window),
			Window:   window,
			Class:    class,
			Eligible: eligible,
		})
	}
	return out
}

// worthProposing keeps windows that could become ready (three others besides the
// requester) or hot (the requester plus two others).
func worthProposing(eligible PlayerSet, requesterID string) bool {
	others := eligible.Len()
	if eligible.Has(requesterID) {
		others--
		if eligible.Len() >= HotSize {
			return true
		}
	}
	return others >= ReadySize-1
}

// confirmedWindows returns slot id -> window for confirmed sessions that have not ended yet.
func confirmedWindows(bookings []Booking, now time.Time) map[string]timerange.Range {
	out := make(map[string]timerange.Range)
	for _, b := range bookings {
		if b.Session.Status != session.StatusConfirmed || !b.Window.End.After(now) {
			continue
		}
		out[b.Session.TimeSlotID] = b.Window
	}
	return out
}

func overlapsAny(window timerange.Range, others []timerange.Range) bool {
	for _, w := range others {
		if window.Overlaps(w) {
			return true
		}
	}
	return false
}

// SortSlots orders by start, then end, then ref id.
func SortSlots(items []CandidateSlot) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Window.Start.Equal(b.Window.Start) {
			return a.Window.Start.Before(b.Window.Start)
		}
		if !a.Window.End.Equal(b.Window.End) {
			return a.Window.End.Before(b.Window.End)
		}
		return a.Ref.ID < b.Ref.ID
	})
}
