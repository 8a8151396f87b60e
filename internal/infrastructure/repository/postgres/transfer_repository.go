package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"fpl-dashboard/internal/domain/transfer"
	qb "fpl-dashboard/internal/platform/querybuilder"
)

type transferTableModel struct {
	ManagerID   int64 `db:"manager_id"`
	Gameweek    int   `db:"gameweek"`
	PlayerInID  int64 `db:"player_in_id"`
	PlayerOutID int64 `db:"player_out_id"`
}

type TransferRepository struct {
	db *sqlx.DB
}

func NewTransferRepository(db *sqlx.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

func (r *TransferRepository) ReplaceByManager(ctx context.Context, managerID int64, items []transfer.Transfer) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace transfers: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := qb.DeleteFrom("transfers").
		Where(qb.Eq("manager_id", managerID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete transfers query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete transfers: %w", err)
	}

	if len(items) > 0 {
		insert := qb.InsertInto("transfers").Columns("manager_id", "gameweek", "player_in_id", "player_out_id")
		for _, t := range items {
			insert.Row(managerID, t.Gameweek, t.PlayerInID, t.PlayerOutID)
		}
		query, args, err := insert.ToSQL()
		if err != nil {
			return fmt.Errorf("build insert transfers query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert transfers: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace transfers: %w", err)
	}
	return nil
}

func (r *TransferRepository) ListByManager(ctx context.Context, managerID int64) ([]transfer.Transfer, error) {
	query, args, err := qb.Select("manager_id", "gameweek", "player_in_id", "player_out_id").
		From("transfers").
		Where(qb.Eq("manager_id", managerID)).
		OrderBy("gameweek ASC", "player_in_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list transfers query: %w", err)
	}

	var rows []transferTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}

	out := make([]transfer.Transfer, 0, len(rows))
	for _, row := range rows {
		out = append(out, transfer.Transfer{
			ManagerID:   row.ManagerID,
			Gameweek:    row.Gameweek,
			PlayerInID:  row.PlayerInID,
			PlayerOutID: row.PlayerOutID,
		})
	}
	return out, nil
}
