package transfer

import "fmt"

// Transfer is one squad swap a manager made ahead of a gameweek.
type Transfer struct {
	ManagerID   int64
	Gameweek    int
	PlayerInID  int64
	PlayerOutID int64
}

func (t Transfer) Validate() error {
	if t.ManagerID <= 0 {
		return fmt.Errorf("transfer manager id must be greater than zero")
	}
	if t.Gameweek <= 0 {
		return fmt.Errorf("transfer gameweek must be greater than zero")
	}
	if t.PlayerInID <= 0 || t.PlayerOutID <= 0 {
		return fmt.Errorf("transfer player ids must be greater than zero")
	}

	return nil
}
