package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/matching"
	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
	"github.com/riskibarqy/matchmaker/internal/domain/session"
	"github.com/riskibarqy/matchmaker/internal/domain/timeslot"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

// bookingLoader joins slots, sessions and rsvps for one group.
type bookingLoader struct {
	slotRepo    timeslot.Repository
	sessionRepo session.Repository
	rsvpRepo    rsvp.Repository
}

// around widens a window by a day on both sides so same-day rules see every
// candidate regardless of the configured time zone.
func around(window timerange.Range) timerange.Range {
	return timerange.Range{
		Start: window.Start.Add(-24 * time.Hour),
		End:   window.End.Add(24 * time.Hour),
	}
}

func (l bookingLoader) load(ctx context.Context, groupID string, window timerange.Range) ([]timeslot.TimeSlot, []matching.Booking, error) {
	slots, err := l.slotRepo.ListByGroup(ctx, groupID, window)
	if err != nil {
		return nil, nil, fmt.Errorf("list time slots: %w", err)
	}
	if len(slots) == 0 {
		return slots, nil, nil
	}

	slotIDs := make([]string, 0, len(slots))
	for _, s := range slots {
		slotIDs = append(slotIDs, s.ID)
	}
	sessions, err := l.sessionRepo.ListByTimeSlots(ctx, slotIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) == 0 {
		return slots, nil, nil
	}

	sessionIDs := make([]string, 0, len(sessions))
	for _, s := range sessions {
		sessionIDs = append(sessionIDs, s.ID)
	}
	rows, err := l.rsvpRepo.ListBySessions(ctx, sessionIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("list rsvps: %w", err)
	}

	return slots, matching.BuildBookings(slots, sessions, rows), nil
}

func (l bookingLoader) booking(ctx context.Context, sessionID string) (matching.Booking, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return matching.Booking{}, fmt.Errorf("%w: session_id is required", ErrInvalidInput)
	}

	item, exists, err := l.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return matching.Booking{}, fmt.Errorf("get session: %w", err)
	}
	if !exists {
		return matching.Booking{}, fmt.Errorf("%w: session=%s", ErrNotFound, sessionID)
	}

	slot, exists, err := l.slotRepo.GetByID(ctx, item.TimeSlotID)
	if err != nil {
		return matching.Booking{}, fmt.Errorf("get time slot: %w", err)
	}
	if !exists {
		return matching.Booking{}, fmt.Errorf("%w: time slot=%s", ErrNotFound, item.TimeSlotID)
	}

	rows, err := l.rsvpRepo.ListBySessions(ctx, []string{item.ID})
	if err != nil {
		return matching.Booking{}, fmt.Errorf("list rsvps: %w", err)
	}

	return matching.Booking{Session: item, Window: slot.Range(), Rsvps: rows}, nil
}

func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// acceptedAfter is the accepted set of b once playerID holds status.
func acceptedAfter(b matching.Booking, playerID string, status rsvp.Status) matching.PlayerSet {
	accepted := b.Accepted().Without(playerID)
	if status == rsvp.StatusAccepted {
		accepted[playerID] = struct{}{}
	}
	return accepted
}

// promoteWhenFull confirms a pending session once it has enough accepted players.
// It reports whether the session was promoted.
func (l bookingLoader) promoteWhenFull(ctx context.Context, item session.Session, accepted int) (session.Session, bool, error) {
	if item.Status != session.StatusPending || accepted < matching.ReadySize {
		return item, false, nil
	}
	item.Status = session.StatusConfirmed
	if err := l.sessionRepo.Update(ctx, item); err != nil {
		item.Status = session.StatusPending
		return item, false, fmt.Errorf("promote session: %w", err)
	}
	return item, true, nil
}
