// Package memory holds map-backed repositories. They carry the same
// contracts as the postgres implementations and double as the storage
// backend when no database is configured.
package memory

import (
	"context"
	"sync"

	"fpl-dashboard/internal/domain/league"
)

type LeagueRepository struct {
	mu      sync.RWMutex
	leagues map[int64]league.League
	members map[int64][]int64
}

func NewLeagueRepository() *LeagueRepository {
	return &LeagueRepository{
		leagues: make(map[int64]league.League),
		members: make(map[int64][]int64),
	}
}

func (r *LeagueRepository) Upsert(_ context.Context, l league.League) error {
	r.mu.Lock()
	r.leagues[l.ID] = l
	r.mu.Unlock()
	return nil
}

func (r *LeagueRepository) GetByID(_ context.Context, leagueID int64) (league.League, bool, error) {
	r.mu.RLock()
	l, ok := r.leagues[leagueID]
	r.mu.RUnlock()
	return l, ok, nil
}

func (r *LeagueRepository) ReplaceMembers(_ context.Context, leagueID int64, managerIDs []int64) error {
	copied := make([]int64, len(managerIDs))
	copy(copied, managerIDs)

	r.mu.Lock()
	r.members[leagueID] = copied
	r.mu.Unlock()
	return nil
}

func (r *LeagueRepository) ListMembers(_ context.Context, leagueID int64) ([]int64, error) {
	r.mu.RLock()
	stored := r.members[leagueID]
	out := make([]int64, len(stored))
	copy(out, stored)
	r.mu.RUnlock()
	return out, nil
}
