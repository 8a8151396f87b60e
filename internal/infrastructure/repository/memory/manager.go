package memory

import (
	"context"
	"sync"

	"fpl-dashboard/internal/domain/manager"
)

type ManagerRepository struct {
	mu       sync.RWMutex
	managers map[int64]manager.Manager
}

func NewManagerRepository() *ManagerRepository {
	return &ManagerRepository{managers: make(map[int64]manager.Manager)}
}

func (r *ManagerRepository) Upsert(_ context.Context, m manager.Manager) error {
	r.mu.Lock()
	r.managers[m.ID] = m
	r.mu.Unlock()
	return nil
}

func (r *ManagerRepository) GetByID(_ context.Context, managerID int64) (manager.Manager, bool, error) {
	r.mu.RLock()
	m, ok := r.managers[managerID]
	r.mu.RUnlock()
	return m, ok, nil
}
