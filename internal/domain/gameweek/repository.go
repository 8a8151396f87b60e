package gameweek

import (
	"context"
	"errors"
)

// ErrFinalizedConflict is returned by Upsert when a write would change the
// scoring fields of a record that is already finalized.
var ErrFinalizedConflict = errors.New("finalized gameweek record conflict")

// Repository is the historical store for gameweek records. At most one
// record exists per (manager, gameweek); the store guarantees that
// finalized records are immutable.
type Repository interface {
	// Upsert inserts or replaces the record for (rec.ManagerID,
	// rec.Gameweek). Writing over a finalized record is a no-op when the
	// scoring fields agree and ErrFinalizedConflict when they do not.
	Upsert(ctx context.Context, rec Record) error
	Get(ctx context.Context, managerID int64, gw int) (Record, bool, error)
	// ListByManager returns records with from <= gameweek <= to in
	// ascending gameweek order. from <= 0 means from the first gameweek,
	// to <= 0 means no upper bound.
	ListByManager(ctx context.Context, managerID int64, from, to int) ([]Record, error)
}
