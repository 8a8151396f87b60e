package memory

import (
	"context"
	"sync"

	"fpl-dashboard/internal/domain/player"
)

type PlayerRepository struct {
	mu      sync.RWMutex
	players map[int64]player.Player
}

func NewPlayerRepository() *PlayerRepository {
	return &PlayerRepository{players: make(map[int64]player.Player)}
}

func (r *PlayerRepository) UpsertMany(_ context.Context, players []player.Player) error {
	r.mu.Lock()
	for _, p := range players {
		r.players[p.ID] = p
	}
	r.mu.Unlock()
	return nil
}

func (r *PlayerRepository) GetByID(_ context.Context, playerID int64) (player.Player, bool, error) {
	r.mu.RLock()
	p, ok := r.players[playerID]
	r.mu.RUnlock()
	return p, ok, nil
}

func (r *PlayerRepository) ListByIDs(_ context.Context, playerIDs []int64) ([]player.Player, error) {
	r.mu.RLock()
	out := make([]player.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		if p, ok := r.players[id]; ok {
			out = append(out, p)
		}
	}
	r.mu.RUnlock()
	return out, nil
}
