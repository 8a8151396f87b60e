package league

import "context"

// Repository describes league persistence needs from use cases. Leagues
// are created on first fetch and never deleted automatically.
type Repository interface {
	Upsert(ctx context.Context, l League) error
	GetByID(ctx context.Context, leagueID int64) (League, bool, error)
	ReplaceMembers(ctx context.Context, leagueID int64, managerIDs []int64) error
	ListMembers(ctx context.Context, leagueID int64) ([]int64, error)
}
