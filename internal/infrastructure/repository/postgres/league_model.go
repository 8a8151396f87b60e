package postgres

import "time"

type leagueTableModel struct {
	ID            int64     `db:"id"`
	Name          string    `db:"name"`
	Type          string    `db:"type"`
	Scoring       string    `db:"scoring"`
	StartGameweek int       `db:"start_gameweek"`
	Privacy       string    `db:"privacy"`
	UpdatedAt     time.Time `db:"updated_at"`
}
