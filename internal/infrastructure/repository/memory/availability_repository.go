package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/matchmaker/internal/domain/availability"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

// AvailabilityRepository stores already-effective intervals.
type AvailabilityRepository struct {
	mu    sync.RWMutex
	items []availability.Interval
}

func NewAvailabilityRepository(items []availability.Interval) *AvailabilityRepository {
	return &AvailabilityRepository{items: append([]availability.Interval(nil), items...)}
}

func (r *AvailabilityRepository) Add(_ context.Context, items ...availability.Interval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, items...)
	return nil
}

func (r *AvailabilityRepository) ListEffective(_ context.Context, groupID, userID string, window timerange.Range) ([]availability.Interval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]availability.Interval, 0)
	for _, item := range r.items {
		if item.GroupID != groupID {
			continue
		}
		if userID != "" && item.UserID != userID {
			continue
		}
		if !item.Range().Overlaps(window) {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}
