package transfer

import "context"

// Repository describes transfer-history persistence needs from use cases.
// The upstream returns a manager's full transfer history, so writes
// replace the manager's rows wholesale.
type Repository interface {
	ReplaceByManager(ctx context.Context, managerID int64, items []Transfer) error
	ListByManager(ctx context.Context, managerID int64) ([]Transfer, error)
}
