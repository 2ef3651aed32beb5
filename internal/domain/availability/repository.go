package availability

import (
	"context"

	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

// Repository returns effective availability. An empty userID means every member of the group.
type Repository interface {
	ListEffective(ctx context.Context, groupID, userID string, window timerange.Range) ([]Interval, error)
}
