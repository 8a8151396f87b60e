package player

import "fmt"

// Player is one row of the read-mostly reference catalog. Price is in
// tenths of a million, as upstream reports it. EventPoints is the player's
// score in the current gameweek at the time the catalog was refreshed.
type Player struct {
	ID           int64
	Name         string
	Team         string
	Position     string
	Price        int
	OwnershipPct float64
	EventPoints  int
	TotalPoints  int
}

func (p Player) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("player id must be greater than zero")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}

	return nil
}
