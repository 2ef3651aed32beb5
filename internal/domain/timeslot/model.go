package timeslot

import (
	"errors"
	"time"

	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

// ErrDuplicateStart is returned by Create when (group, start, seq) already exists.
var ErrDuplicateStart = errors.New("time slot already exists for group and start")

// TimeSlot is a persisted window. Seq distinguishes sibling slots sharing one
// wall-clock start; the primary slot has Seq 0.
type TimeSlot struct {
	ID        string
	GroupID   string
	Start     time.Time
	End       time.Time
	Seq       int
	CreatedAt time.Time
}

func (s TimeSlot) Range() timerange.Range {
	return timerange.Range{Start: s.Start, End: s.End}
}
