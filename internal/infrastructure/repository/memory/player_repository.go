package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/matchmaker/internal/domain/club"
	"github.com/riskibarqy/matchmaker/internal/domain/player"
)

type PlayerRepository struct {
	mu             sync.RWMutex
	playersByGroup map[string][]player.Player
}

func NewPlayerRepository(players []player.Player) *PlayerRepository {
	r := &PlayerRepository{playersByGroup: make(map[string][]player.Player)}
	for _, p := range players {
		r.playersByGroup[p.GroupID] = append(r.playersByGroup[p.GroupID], clonePlayer(p))
	}
	return r
}

func (r *PlayerRepository) ListByGroup(_ context.Context, groupID string) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := r.playersByGroup[groupID]
	out := make([]player.Player, 0, len(players))
	for _, p := range players {
		out = append(out, clonePlayer(p))
	}
	return out, nil
}

// Upsert replaces a profile by id within its group.
func (r *PlayerRepository) Upsert(_ context.Context, item player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := r.playersByGroup[item.GroupID]
	for i := range players {
		if players[i].ID == item.ID {
			players[i] = clonePlayer(item)
			return nil
		}
	}
	r.playersByGroup[item.GroupID] = append(players, clonePlayer(item))
	return nil
}

func clonePlayer(p player.Player) player.Player {
	copied := p
	copied.AcceptedClubIDs = append([]string(nil), p.AcceptedClubIDs...)
	if p.Home != nil {
		home := *p.Home
		copied.Home = &home
	}
	if p.Work != nil {
		work := *p.Work
		copied.Work = &work
	}
	return copied
}

type ClubRepository struct {
	mu     sync.RWMutex
	byZone map[string][]club.Club
}

func NewClubRepository(clubs []club.Club) *ClubRepository {
	r := &ClubRepository{byZone: make(map[string][]club.Club)}
	for _, c := range clubs {
		r.byZone[c.ZoneID] = append(r.byZone[c.ZoneID], c)
	}
	for zone := range r.byZone {
		items := r.byZone[zone]
		sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	}
	return r
}

func (r *ClubRepository) ListByZone(_ context.Context, zoneID string) ([]club.Club, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]club.Club(nil), r.byZone[zoneID]...), nil
}
