package player

import "context"

// Repository describes player catalog persistence needs from use cases.
type Repository interface {
	UpsertMany(ctx context.Context, players []Player) error
	GetByID(ctx context.Context, playerID int64) (Player, bool, error)
	ListByIDs(ctx context.Context, playerIDs []int64) ([]Player, error)
}
