package manager

import "fmt"

// Manager is one fantasy entry and its owner; ID is the upstream entry id.
// Summary fields are mutable and refreshed on every ingest.
type Manager struct {
	ID              int64
	Name            string
	TeamName        string
	Region          string
	OverallPoints   int
	OverallRank     int
	CurrentGameweek int
}

func (m Manager) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("manager id must be greater than zero")
	}
	if m.Name == "" && m.TeamName == "" {
		return fmt.Errorf("manager name or team name is required")
	}
	if m.OverallPoints < 0 {
		return fmt.Errorf("manager overall points cannot be negative")
	}
	if m.OverallRank < 0 {
		return fmt.Errorf("manager overall rank cannot be negative")
	}

	return nil
}
