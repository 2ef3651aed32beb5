package player

import "context"

// Repository exposes player profile reads.
type Repository interface {
	ListByGroup(ctx context.Context, groupID string) ([]Player, error)
}
