package timerange

import (
	"fmt"
	"time"
)

// TickSize is the granularity used to partition windows for coverage checks.
const TickSize = 30 * time.Minute

// Range is a half-open [Start, End) time window.
type Range struct {
	Start time.Time
	End   time.Time
}

func New(start time.Time, d time.Duration) Range {
	return Range{Start: start, End: start.Add(d)}
}

func (r Range) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && r.End.After(r.Start)
}

func (r Range) Duration() time.Duration {
	if !r.Valid() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Overlaps reports whether both ranges share any instant. Touching ranges do not overlap.
func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Contains reports whether other lies entirely inside r.
func (r Range) Contains(other Range) bool {
	return !other.Start.Before(r.Start) && !other.End.After(r.End)
}

func (r Range) SameStart(other Range) bool {
	return r.Start.Equal(other.Start)
}

func (r Range) SameEnd(other Range) bool {
	return r.End.Equal(other.End)
}

func (r Range) Equal(other Range) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

// SameDay compares the calendar day of both starts in loc.
func (r Range) SameDay(other Range, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	ay, am, ad := r.Start.In(loc).Date()
	by, bm, bd := other.Start.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// Clip narrows r to bounds. The result may be invalid when they do not intersect.
func (r Range) Clip(bounds Range) Range {
	out := r
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	return out
}

// Ticks partitions r into consecutive TickSize pieces; the last one may be shorter.
func (r Range) Ticks() []Range {
	if !r.Valid() {
		return nil
	}
	out := make([]Range, 0, int(r.Duration()/TickSize)+1)
	for cur := r.Start; cur.Before(r.End); cur = cur.Add(TickSize) {
		end := cur.Add(TickSize)
		if end.After(r.End) {
			end = r.End
		}
		out = append(out, Range{Start: cur, End: end})
	}
	return out
}

// Key is a stable identity for deduplicating windows.
func (r Range) Key() string {
	return fmt.Sprintf("%d-%d", r.Start.Unix(), r.End.Unix())
}

func (r Range) String() string {
	return r.Start.Format(time.RFC3339) + "/" + r.End.Format(time.RFC3339)
}

// AlignUp rounds t up to the next TickSize boundary.
func AlignUp(t time.Time) time.Time {
	truncated := t.Truncate(TickSize)
	if truncated.Equal(t) {
		return t
	}
	return truncated.Add(TickSize)
}
