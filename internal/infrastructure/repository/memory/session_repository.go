package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
	"github.com/riskibarqy/matchmaker/internal/domain/session"
)

type SessionRepository struct {
	mu    sync.RWMutex
	items map[string]session.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{items: make(map[string]session.Session)}
}

func (r *SessionRepository) Create(_ context.Context, item session.Session) (session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return session.Session{}, fmt.Errorf("session id=%s already exists", item.ID)
	}
	r.items[item.ID] = cloneSession(item)
	return cloneSession(item), nil
}

func (r *SessionRepository) GetByID(_ context.Context, id string) (session.Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return session.Session{}, false, nil
	}
	return cloneSession(item), true, nil
}

func (r *SessionRepository) ListByTimeSlots(_ context.Context, timeSlotIDs []string) ([]session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(timeSlotIDs))
	for _, id := range timeSlotIDs {
		wanted[id] = struct{}{}
	}
	out := make([]session.Session, 0)
	for _, item := range r.items {
		if _, ok := wanted[item.TimeSlotID]; ok {
			out = append(out, cloneSession(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *SessionRepository) Update(_ context.Context, item session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		return fmt.Errorf("session id=%s not found", item.ID)
	}
	r.items[item.ID] = cloneSession(item)
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func cloneSession(item session.Session) session.Session {
	copied := item
	if item.CourtReservedAt != nil {
		at := *item.CourtReservedAt
		copied.CourtReservedAt = &at
	}
	return copied
}

type RsvpRepository struct {
	mu    sync.RWMutex
	items map[string]map[string]rsvp.Rsvp
}

func NewRsvpRepository() *RsvpRepository {
	return &RsvpRepository{items: make(map[string]map[string]rsvp.Rsvp)}
}

func (r *RsvpRepository) ListBySessions(_ context.Context, sessionIDs []string) ([]rsvp.Rsvp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]rsvp.Rsvp, 0)
	for _, sessionID := range sessionIDs {
		for _, item := range r.items[sessionID] {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SessionID != out[j].SessionID {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (r *RsvpRepository) Upsert(_ context.Context, item rsvp.Rsvp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertLocked(item)
	return nil
}

func (r *RsvpRepository) Delete(_ context.Context, sessionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items[sessionID], userID)
	return nil
}

func (r *RsvpRepository) DeleteBySession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, sessionID)
	return nil
}

func (r *RsvpRepository) Replace(_ context.Context, sessionID, outgoingID string, incoming rsvp.Rsvp) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, ok := r.items[sessionID]
	if !ok {
		return fmt.Errorf("no rsvps for session id=%s", sessionID)
	}
	if _, ok := rows[outgoingID]; !ok {
		return fmt.Errorf("no rsvp for user id=%s on session id=%s", outgoingID, sessionID)
	}
	delete(rows, outgoingID)
	incoming.SessionID = sessionID
	r.upsertLocked(incoming)
	return nil
}

func (r *RsvpRepository) upsertLocked(item rsvp.Rsvp) {
	rows, ok := r.items[item.SessionID]
	if !ok {
		rows = make(map[string]rsvp.Rsvp)
		r.items[item.SessionID] = rows
	}
	rows[item.UserID] = item
}
