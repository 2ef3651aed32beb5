package matching

import (
	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
	"github.com/riskibarqy/matchmaker/internal/domain/session"
	"github.com/riskibarqy/matchmaker/internal/domain/timeslot"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

// Booking is a session joined with its slot window and rsvp rows.
type Booking struct {
	Session session.Session
	Window  timerange.Range
	Rsvps   []rsvp.Rsvp
}

// StatusOf returns the rsvp status of userID, StatusUnset when absent.
func (b Booking) StatusOf(userID string) rsvp.Status {
	for _, item := range b.Rsvps {
		if item.UserID == userID {
			return item.Status
		}
	}
	return rsvp.StatusUnset
}

// Accepted returns the ids holding an accepted row.
func (b Booking) Accepted() PlayerSet {
	out := make(PlayerSet)
	for _, item := range b.Rsvps {
		if item.Status == rsvp.StatusAccepted {
			out[item.UserID] = struct{}{}
		}
	}
	return out
}

// BuildBookings joins sessions to their slots. Sessions whose slot is unknown are skipped.
func BuildBookings(slots []timeslot.TimeSlot, sessions []session.Session, rsvps []rsvp.Rsvp) []Booking {
	slotByID := make(map[string]timeslot.TimeSlot, len(slots))
	for _, s := range slots {
		slotByID[s.ID] = s
	}
	rsvpsBySession := make(map[string][]rsvp.Rsvp)
	for _, item := range rsvps {
		rsvpsBySession[item.SessionID] = append(rsvpsBySession[item.SessionID], item)
	}

	out := make([]Booking, 0, len(sessions))
	for _, item := range sessions {
		slot, ok := slotByID[item.TimeSlotID]
		if !ok {
			continue
		}
		out = append(out, Booking{
			Session: item,
			Window:  slot.Range(),
			Rsvps:   rsvpsBySession[item.ID],
		})
	}
	return out
}
