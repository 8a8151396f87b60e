package manager

import "context"

// Repository describes manager persistence needs from use cases.
type Repository interface {
	Upsert(ctx context.Context, m Manager) error
	GetByID(ctx context.Context, managerID int64) (Manager, bool, error)
}
