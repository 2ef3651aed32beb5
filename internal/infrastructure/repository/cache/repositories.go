package cache

import (
	"context"

	"github.com/riskibarqy/matchmaker/internal/domain/club"
	"github.com/riskibarqy/matchmaker/internal/domain/player"
	basecache "github.com/riskibarqy/matchmaker/internal/platform/cache"
)

const (
	playerKeyPrefix = "player:"
	clubKeyPrefix   = "club:"
)

// PlayerRepository caches group profile snapshots. Callers always receive their
// own copy so filter stages can never mutate the cached value.
type PlayerRepository struct {
	next  player.Repository
	cache *basecache.Store
}

func NewPlayerRepository(next player.Repository, cache *basecache.Store) *PlayerRepository {
	return &PlayerRepository{next: next, cache: cache}
}

func (r *PlayerRepository) ListByGroup(ctx context.Context, groupID string) ([]player.Player, error) {
	key := playerKeyPrefix + "group:" + groupID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}
		return clonePlayers(items), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]player.Player)
	return clonePlayers(items), nil
}

// Invalidate drops every cached group so the next read hits the store.
func (r *PlayerRepository) Invalidate(ctx context.Context) {
	r.cache.DeletePrefix(ctx, playerKeyPrefix)
}

type ClubRepository struct {
	next  club.Repository
	cache *basecache.Store
}

func NewClubRepository(next club.Repository, cache *basecache.Store) *ClubRepository {
	return &ClubRepository{next: next, cache: cache}
}

func (r *ClubRepository) ListByZone(ctx context.Context, zoneID string) ([]club.Club, error) {
	key := clubKeyPrefix + "zone:" + zoneID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByZone(ctx, zoneID)
		if err != nil {
			return nil, err
		}
		return append([]club.Club(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]club.Club)
	return append([]club.Club(nil), items...), nil
}

func (r *ClubRepository) Invalidate(ctx context.Context) {
	r.cache.DeletePrefix(ctx, clubKeyPrefix)
}

func clonePlayers(items []player.Player) []player.Player {
	out := make([]player.Player, 0, len(items))
	for _, item := range items {
		item.AcceptedClubIDs = append([]string(nil), item.AcceptedClubIDs...)
		if item.Home != nil {
			home := *item.Home
			item.Home = &home
		}
		if item.Work != nil {
			work := *item.Work
			item.Work = &work
		}
		out = append(out, item)
	}
	return out
}
