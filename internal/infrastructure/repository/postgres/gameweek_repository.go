package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"fpl-dashboard/internal/domain/gameweek"
	qb "fpl-dashboard/internal/platform/querybuilder"
)

type GameweekRepository struct {
	db *sqlx.DB
}

func NewGameweekRepository(db *sqlx.DB) *GameweekRepository {
	return &GameweekRepository{db: db}
}

// Upsert writes the record under a row lock so the finalized comparison
// and the write are one atomic step.
func (r *GameweekRepository) Upsert(ctx context.Context, rec gameweek.Record) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := qb.Select("*").From("gameweek_records").
		Where(qb.Eq("manager_id", rec.ManagerID), qb.Eq("gameweek", rec.Gameweek)).
		ForUpdate().
		ToSQL()
	if err != nil {
		return fmt.Errorf("build select record query: %w", err)
	}

	var row gameweekRecordTableModel
	getErr := tx.GetContext(ctx, &row, query, args...)
	if getErr != nil && !isNotFound(getErr) {
		return fmt.Errorf("select record for update: %w", getErr)
	}

	if getErr == nil && row.Finalized {
		existing, err := row.toDomain()
		if err != nil {
			return err
		}
		if !existing.SameScoring(rec) {
			return fmt.Errorf("%w: manager %d gameweek %d",
				gameweek.ErrFinalizedConflict, rec.ManagerID, rec.Gameweek)
		}
		if len(existing.Picks) > 0 || len(rec.Picks) == 0 {
			return tx.Commit()
		}
		// Backfill picks onto a finalized record; scoring already matched.
		rec.Finalized = true
	}

	model, err := newGameweekRecordModel(rec)
	if err != nil {
		return err
	}
	query, args, err = qb.InsertModel("gameweek_records", model, `ON CONFLICT (manager_id, gameweek) DO UPDATE SET
		points = EXCLUDED.points,
		total_points = EXCLUDED.total_points,
		overall_rank = EXCLUDED.overall_rank,
		bank = EXCLUDED.bank,
		squad_value = EXCLUDED.squad_value,
		transfers = EXCLUDED.transfers,
		transfer_cost = EXCLUDED.transfer_cost,
		bench_points = EXCLUDED.bench_points,
		picks = EXCLUDED.picks,
		auto_subs = EXCLUDED.auto_subs,
		chip = EXCLUDED.chip,
		finalized = EXCLUDED.finalized,
		updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert record query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert record: %w", err)
	}
	return nil
}

func (r *GameweekRepository) Get(ctx context.Context, managerID int64, gw int) (gameweek.Record, bool, error) {
	query, args, err := qb.Select("*").From("gameweek_records").
		Where(qb.Eq("manager_id", managerID), qb.Eq("gameweek", gw)).
		ToSQL()
	if err != nil {
		return gameweek.Record{}, false, fmt.Errorf("build get record query: %w", err)
	}

	var row gameweekRecordTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return gameweek.Record{}, false, nil
		}
		return gameweek.Record{}, false, fmt.Errorf("get record: %w", err)
	}

	rec, err := row.toDomain()
	if err != nil {
		return gameweek.Record{}, false, err
	}
	return rec, true, nil
}

func (r *GameweekRepository) ListByManager(ctx context.Context, managerID int64, from, to int) ([]gameweek.Record, error) {
	builder := qb.Select("*").From("gameweek_records").
		Where(qb.Eq("manager_id", managerID)).
		OrderBy("gameweek ASC")
	if from > 0 {
		builder.Where(qb.Gte("gameweek", from))
	}
	if to > 0 {
		builder.Where(qb.Lte("gameweek", to))
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list records query: %w", err)
	}

	var rows []gameweekRecordTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	out := make([]gameweek.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
