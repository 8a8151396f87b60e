package postgres

import "time"

type managerTableModel struct {
	ID              int64     `db:"id"`
	Name            string    `db:"name"`
	TeamName        string    `db:"team_name"`
	Region          string    `db:"region"`
	OverallPoints   int       `db:"overall_points"`
	OverallRank     int       `db:"overall_rank"`
	CurrentGameweek int       `db:"current_gameweek"`
	UpdatedAt       time.Time `db:"updated_at"`
}
