package timeslot

import (
	"context"
	"time"

	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

// Repository persists time slots. Create must enforce uniqueness on (group, start, seq).
type Repository interface {
	Create(ctx context.Context, slot TimeSlot) (TimeSlot, error)
	GetByID(ctx context.Context, id string) (TimeSlot, bool, error)
	// FindByStart returns slots whose start lies within fuzz of start, closest first.
	FindByStart(ctx context.Context, groupID string, start time.Time, fuzz time.Duration) ([]TimeSlot, error)
	// ListByGroup returns slots intersecting window.
	ListByGroup(ctx context.Context, groupID string, window timerange.Range) ([]TimeSlot, error)
}
