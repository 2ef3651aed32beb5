package availability

import (
	"time"

	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
)

// Interval is one effective availability window of a user, already merged from
// recurring templates and overrides.
type Interval struct {
	GroupID string
	UserID  string
	Start   time.Time
	End     time.Time
	Status  Status
}

func (i Interval) Range() timerange.Range {
	return timerange.Range{Start: i.Start, End: i.End}
}

// Usable reports whether the interval counts as coverage.
func (i Interval) Usable() bool {
	return i.Status == StatusAvailable && i.UserID != "" && i.Range().Valid()
}
