package postgres

import "time"

type playerTableModel struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Team         string    `db:"team"`
	Position     string    `db:"position"`
	Price        int       `db:"price"`
	OwnershipPct float64   `db:"ownership_pct"`
	EventPoints  int       `db:"event_points"`
	TotalPoints  int       `db:"total_points"`
	UpdatedAt    time.Time `db:"updated_at"`
}
