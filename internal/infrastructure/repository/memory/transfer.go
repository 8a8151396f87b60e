package memory

import (
	"context"
	"sync"

	"fpl-dashboard/internal/domain/transfer"
)

type TransferRepository struct {
	mu    sync.RWMutex
	items map[int64][]transfer.Transfer
}

func NewTransferRepository() *TransferRepository {
	return &TransferRepository{items: make(map[int64][]transfer.Transfer)}
}

func (r *TransferRepository) ReplaceByManager(_ context.Context, managerID int64, items []transfer.Transfer) error {
	copied := make([]transfer.Transfer, len(items))
	copy(copied, items)

	r.mu.Lock()
	r.items[managerID] = copied
	r.mu.Unlock()
	return nil
}

func (r *TransferRepository) ListByManager(_ context.Context, managerID int64) ([]transfer.Transfer, error) {
	r.mu.RLock()
	stored := r.items[managerID]
	out := make([]transfer.Transfer, len(stored))
	copy(out, stored)
	r.mu.RUnlock()
	return out, nil
}
