package usecase

import (
	"github.com/riskibarqy/matchmaker/internal/domain/changefeed"
	"github.com/riskibarqy/matchmaker/internal/domain/matching"
	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
)

// ApplyOptimisticPatch returns view with one feed event applied. It never mutates
// its input and never adds what it cannot place; the next refetch fills the gaps.
func ApplyOptimisticPatch(view View, event any) View {
	switch ev := event.(type) {
	case changefeed.SessionEvent:
		return patchSession(view, ev)
	case changefeed.RsvpEvent:
		return patchRsvp(view, ev)
	default:
		return view
	}
}

func (v View) hasSession(sessionID string) bool {
	for _, b := range v.Bookings {
		if b.Session.ID == sessionID {
			return true
		}
	}
	return false
}

func patchSession(view View, ev changefeed.SessionEvent) View {
	out := view
	out.Bookings = make([]matching.Booking, 0, len(view.Bookings)+1)

	found := false
	for _, b := range view.Bookings {
		if b.Session.ID != ev.Session.ID {
			out.Bookings = append(out.Bookings, b)
			continue
		}
		found = true
		if ev.Op == changefeed.OpDelete {
			continue
		}
		b.Session = ev.Session
		out.Bookings = append(out.Bookings, b)
	}

	if !found && ev.Op != changefeed.OpDelete {
		// Place a new session only when its slot is already known to the view.
		for _, b := range view.Bookings {
			if b.Session.TimeSlotID == ev.Session.TimeSlotID {
				out.Bookings = append(out.Bookings, matching.Booking{Session: ev.Session, Window: b.Window})
				break
			}
		}
	}

	if ev.Op == changefeed.OpDelete {
		out.Proposals.Hot = withoutSession(view.Proposals.Hot, ev.Session.ID)
	}
	return out
}

func patchRsvp(view View, ev changefeed.RsvpEvent) View {
	out := view
	out.Bookings = make([]matching.Booking, len(view.Bookings))
	copy(out.Bookings, view.Bookings)

	var patched *matching.Booking
	for i := range out.Bookings {
		b := &out.Bookings[i]
		if b.Session.ID != ev.Rsvp.SessionID {
			continue
		}
		rows := make([]rsvp.Rsvp, 0, len(b.Rsvps)+1)
		replaced := false
		for _, row := range b.Rsvps {
			if row.UserID != ev.Rsvp.UserID {
				rows = append(rows, row)
				continue
			}
			replaced = true
			if ev.Op != changefeed.OpDelete {
				rows = append(rows, ev.Rsvp)
			}
		}
		if !replaced && ev.Op != changefeed.OpDelete {
			rows = append(rows, ev.Rsvp)
		}
		b.Rsvps = rows
		patched = b
		break
	}
	if patched == nil {
		return view
	}

	// A hot entry backed by this session only stays hot at exactly three accepted
	// and while the requester holds no row.
	hot := make([]matching.CandidateSlot, 0, len(view.Proposals.Hot))
	for _, c := range view.Proposals.Hot {
		if c.SessionID != patched.Session.ID {
			hot = append(hot, c)
			continue
		}
		accepted := patched.Accepted()
		if accepted.Len() != matching.HotSize || patched.StatusOf(view.Query.RequesterID) != rsvp.StatusUnset {
			continue
		}
		c.Eligible = accepted
		hot = append(hot, c)
	}
	out.Proposals.Hot = hot
	return out
}

func withoutSession(items []matching.CandidateSlot, sessionID string) []matching.CandidateSlot {
	out := make([]matching.CandidateSlot, 0, len(items))
	for _, c := range items {
		if c.SessionID == sessionID {
			continue
		}
		out = append(out, c)
	}
	return out
}
