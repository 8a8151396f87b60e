// Package postgres holds the sqlx-backed repositories. Upserts lean on
// ON CONFLICT so ingestion stays idempotent at the storage layer.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"fpl-dashboard/internal/domain/league"
	qb "fpl-dashboard/internal/platform/querybuilder"
)

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

func (r *LeagueRepository) Upsert(ctx context.Context, l league.League) error {
	model := leagueTableModel{
		ID:            l.ID,
		Name:          l.Name,
		Type:          string(l.Type),
		Scoring:       l.Scoring,
		StartGameweek: l.StartGameweek,
		Privacy:       l.Privacy,
		UpdatedAt:     time.Now().UTC(),
	}
	query, args, err := qb.InsertModel("leagues", model, `ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		type = EXCLUDED.type,
		scoring = EXCLUDED.scoring,
		start_gameweek = EXCLUDED.start_gameweek,
		privacy = EXCLUDED.privacy,
		updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert league query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert league: %w", err)
	}

	return nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID int64) (league.League, bool, error) {
	query, args, err := qb.Select("*").From("leagues").
		Where(qb.Eq("id", leagueID)).
		ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build get league query: %w", err)
	}

	var row leagueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("get league by id: %w", err)
	}

	return league.League{
		ID:            row.ID,
		Name:          row.Name,
		Type:          league.Type(row.Type),
		Scoring:       row.Scoring,
		StartGameweek: row.StartGameweek,
		Privacy:       row.Privacy,
	}, true, nil
}

func (r *LeagueRepository) ReplaceMembers(ctx context.Context, leagueID int64, managerIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace members: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := qb.DeleteFrom("league_members").
		Where(qb.Eq("league_id", leagueID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete members query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete league members: %w", err)
	}

	if len(managerIDs) > 0 {
		insert := qb.InsertInto("league_members").Columns("league_id", "manager_id", "position")
		for i, managerID := range managerIDs {
			insert.Row(leagueID, managerID, i+1)
		}
		query, args, err := insert.ToSQL()
		if err != nil {
			return fmt.Errorf("build insert members query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert league members: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace members: %w", err)
	}
	return nil
}

func (r *LeagueRepository) ListMembers(ctx context.Context, leagueID int64) ([]int64, error) {
	query, args, err := qb.Select("manager_id").From("league_members").
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("position ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list members query: %w", err)
	}

	var out []int64
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list league members: %w", err)
	}
	return out, nil
}
