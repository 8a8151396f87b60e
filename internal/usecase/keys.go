package usecase

import "fmt"

// Cache keys, one namespace per upstream resource.

func keyPlayerCatalog() string {
	return "catalog"
}

func keyLeaguePage(leagueID int64, page int) string {
	return fmt.Sprintf("league:%d:standings:%d", leagueID, page)
}

func keyManagerSummary(managerID int64) string {
	return fmt.Sprintf("manager:%d:summary", managerID)
}

func keyManagerHistory(managerID int64) string {
	return fmt.Sprintf("manager:%d:history", managerID)
}

func keyManagerPicks(managerID int64, gw int) string {
	return fmt.Sprintf("manager:%d:picks:%d", managerID, gw)
}

func keyManagerTransfers(managerID int64) string {
	return fmt.Sprintf("manager:%d:transfers", managerID)
}
