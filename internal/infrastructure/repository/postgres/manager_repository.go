package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"fpl-dashboard/internal/domain/manager"
	qb "fpl-dashboard/internal/platform/querybuilder"
)

type ManagerRepository struct {
	db *sqlx.DB
}

func NewManagerRepository(db *sqlx.DB) *ManagerRepository {
	return &ManagerRepository{db: db}
}

func (r *ManagerRepository) Upsert(ctx context.Context, m manager.Manager) error {
	model := managerTableModel{
		ID:              m.ID,
		Name:            m.Name,
		TeamName:        m.TeamName,
		Region:          m.Region,
		OverallPoints:   m.OverallPoints,
		OverallRank:     m.OverallRank,
		CurrentGameweek: m.CurrentGameweek,
		UpdatedAt:       time.Now().UTC(),
	}
	query, args, err := qb.InsertModel("managers", model, `ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		team_name = EXCLUDED.team_name,
		region = EXCLUDED.region,
		overall_points = EXCLUDED.overall_points,
		overall_rank = EXCLUDED.overall_rank,
		current_gameweek = EXCLUDED.current_gameweek,
		updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert manager query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert manager: %w", err)
	}

	return nil
}

func (r *ManagerRepository) GetByID(ctx context.Context, managerID int64) (manager.Manager, bool, error) {
	query, args, err := qb.Select("*").From("managers").
		Where(qb.Eq("id", managerID)).
		ToSQL()
	if err != nil {
		return manager.Manager{}, false, fmt.Errorf("build get manager query: %w", err)
	}

	var row managerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return manager.Manager{}, false, nil
		}
		return manager.Manager{}, false, fmt.Errorf("get manager by id: %w", err)
	}

	return manager.Manager{
		ID:              row.ID,
		Name:            row.Name,
		TeamName:        row.TeamName,
		Region:          row.Region,
		OverallPoints:   row.OverallPoints,
		OverallRank:     row.OverallRank,
		CurrentGameweek: row.CurrentGameweek,
	}, true, nil
}
