package club

import "context"

// Repository exposes club reads.
type Repository interface {
	ListByZone(ctx context.Context, zoneID string) ([]Club, error)
}
