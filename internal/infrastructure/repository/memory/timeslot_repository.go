package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/timeslot"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

// TimeSlotRepository enforces the same (group, start, seq) uniqueness as the
// Postgres index.
type TimeSlotRepository struct {
	mu       sync.RWMutex
	items    map[string]timeslot.TimeSlot
	startKey map[string]string
}

func NewTimeSlotRepository() *TimeSlotRepository {
	return &TimeSlotRepository{
		items:    make(map[string]timeslot.TimeSlot),
		startKey: make(map[string]string),
	}
}

func (r *TimeSlotRepository) Create(_ context.Context, slot timeslot.TimeSlot) (timeslot.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[slot.ID]; exists {
		return timeslot.TimeSlot{}, fmt.Errorf("time slot id=%s already exists", slot.ID)
	}
	key := slotStartKey(slot.GroupID, slot.Start, slot.Seq)
	if _, taken := r.startKey[key]; taken {
		return timeslot.TimeSlot{}, fmt.Errorf("%w: group=%s start=%s seq=%d", timeslot.ErrDuplicateStart, slot.GroupID, slot.Start.UTC().Format(time.RFC3339), slot.Seq)
	}
	r.items[slot.ID] = slot
	r.startKey[key] = slot.ID
	return slot, nil
}

func (r *TimeSlotRepository) GetByID(_ context.Context, id string) (timeslot.TimeSlot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	return item, ok, nil
}

func (r *TimeSlotRepository) FindByStart(_ context.Context, groupID string, start time.Time, fuzz time.Duration) ([]timeslot.TimeSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]timeslot.TimeSlot, 0)
	for _, item := range r.items {
		if item.GroupID != groupID {
			continue
		}
		if absDuration(item.Start.Sub(start)) > fuzz {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := absDuration(out[i].Start.Sub(start)), absDuration(out[j].Start.Sub(start))
		if di != dj {
			return di < dj
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (r *TimeSlotRepository) ListByGroup(_ context.Context, groupID string, window timerange.Range) ([]timeslot.TimeSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]timeslot.TimeSlot, 0)
	for _, item := range r.items {
		if item.GroupID == groupID && item.Range().Overlaps(window) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func slotStartKey(groupID string, start time.Time, seq int) string {
	return fmt.Sprintf("%s::%d::%d", groupID, start.UnixNano(), seq)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
