package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"fpl-dashboard/internal/domain/player"
	qb "fpl-dashboard/internal/platform/querybuilder"
)

const playerUpsertBatchSize = 200

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// UpsertMany rewrites catalog rows in batches; a bootstrap refresh
// carries the whole player pool at once.
func (r *PlayerRepository) UpsertMany(ctx context.Context, players []player.Player) error {
	now := time.Now().UTC()
	for start := 0; start < len(players); start += playerUpsertBatchSize {
		end := start + playerUpsertBatchSize
		if end > len(players) {
			end = len(players)
		}

		insert := qb.InsertInto("players").Columns(
			"id", "name", "team", "position", "price",
			"ownership_pct", "event_points", "total_points", "updated_at",
		)
		for _, p := range players[start:end] {
			insert.Row(p.ID, p.Name, p.Team, p.Position, p.Price,
				p.OwnershipPct, p.EventPoints, p.TotalPoints, now)
		}
		insert.Suffix(`ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			team = EXCLUDED.team,
			position = EXCLUDED.position,
			price = EXCLUDED.price,
			ownership_pct = EXCLUDED.ownership_pct,
			event_points = EXCLUDED.event_points,
			total_points = EXCLUDED.total_points,
			updated_at = EXCLUDED.updated_at`)

		query, args, err := insert.ToSQL()
		if err != nil {
			return fmt.Errorf("build upsert players query: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert players: %w", err)
		}
	}

	return nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID int64) (player.Player, bool, error) {
	query, args, err := qb.Select("*").From("players").
		Where(qb.Eq("id", playerID)).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build get player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("get player by id: %w", err)
	}

	return rowToPlayer(row), true, nil
}

func (r *PlayerRepository) ListByIDs(ctx context.Context, playerIDs []int64) ([]player.Player, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}

	ids := make([]any, 0, len(playerIDs))
	for _, id := range playerIDs {
		ids = append(ids, id)
	}
	query, args, err := qb.Select("*").From("players").
		Where(qb.In("id", ids)).
		OrderBy("id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list players by ids: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToPlayer(row))
	}
	return out, nil
}

func rowToPlayer(row playerTableModel) player.Player {
	return player.Player{
		ID:           row.ID,
		Name:         row.Name,
		Team:         row.Team,
		Position:     row.Position,
		Price:        row.Price,
		OwnershipPct: row.OwnershipPct,
		EventPoints:  row.EventPoints,
		TotalPoints:  row.TotalPoints,
	}
}
