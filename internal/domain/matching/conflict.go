package matching

import (
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/session"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

// Commitment is one player's accepted or maybe row on a session.
type Commitment struct {
	SessionID string
	UserID    string
	Status    session.Status
	Window    timerange.Range
}

// ConflictResolver removes players already committed to an overlapping session.
//
// The rule is asymmetric on purpose:
//   - pending: the candidate must sit inside the pending window, or share its exact start or end.
//   - confirmed: any overlap on the same calendar day.
type ConflictResolver struct {
	byUser map[string][]Commitment
	loc    *time.Location
}

func NewConflictResolver(bookings []Booking, loc *time.Location) *ConflictResolver {
	if loc == nil {
		loc = time.UTC
	}
	byUser := make(map[string][]Commitment)
	for _, b := range bookings {
		if !b.Window.Valid() {
			continue
		}
		for _, item := range b.Rsvps {
			if !item.Status.Committed() {
				continue
			}
			byUser[item.UserID] = append(byUser[item.UserID], Commitment{
				SessionID: b.Session.ID,
				UserID:    item.UserID,
				Status:    b.Session.Status,
				Window:    b.Window,
			})
		}
	}
	return &ConflictResolver{byUser: byUser, loc: loc}
}

// Conflicting returns the first commitment of userID that blocks window, skipping ignoreSessionID.
func (r *ConflictResolver) Conflicting(userID string, window timerange.Range, ignoreSessionID string) (Commitment, bool) {
	for _, c := range r.byUser[userID] {
		if ignoreSessionID != "" && c.SessionID == ignoreSessionID {
			continue
		}
		if blocks(c, window, r.loc) {
			return c, true
		}
	}
	return Commitment{}, false
}

// Exclude returns the subset of set without conflicting players. set is not modified.
func (r *ConflictResolver) Exclude(set PlayerSet, window timerange.Range) PlayerSet {
	return r.ExcludeIgnoring(set, window, "")
}

// ExcludeIgnoring is Exclude that disregards commitments to ignoreSessionID.
func (r *ConflictResolver) ExcludeIgnoring(set PlayerSet, window timerange.Range, ignoreSessionID string) PlayerSet {
	out := make(PlayerSet, len(set))
	for id := range set {
		if _, blocked := r.Conflicting(id, window, ignoreSessionID); blocked {
			continue
		}
		out[id] = struct{}{}
	}
	return out
}

func blocks(c Commitment, candidate timerange.Range, loc *time.Location) bool {
	switch c.Status {
	case session.StatusPending:
		return c.Window.Contains(candidate) || c.Window.SameStart(candidate) || c.Window.SameEnd(candidate)
	case session.StatusConfirmed:
		return c.Window.SameDay(candidate, loc) && c.Window.Overlaps(candidate)
	default:
		return false
	}
}
