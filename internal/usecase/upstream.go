package usecase

import "context"

// UpstreamClient is the read-only FPL API surface the ingestion pipeline
// consumes. Implementations own rate limiting, retries and error mapping;
// the pipeline owns caching and normalization into domain entities.
type UpstreamClient interface {
	FetchPlayerCatalog(ctx context.Context) (PlayerCatalog, error)
	FetchLeagueStandingsPage(ctx context.Context, leagueID int64, page int) (LeagueStandingsPage, error)
	FetchManagerSummary(ctx context.Context, entryID int64) (ManagerSummary, error)
	FetchManagerHistory(ctx context.Context, entryID int64) (ManagerHistory, error)
	FetchManagerPicks(ctx context.Context, entryID int64, gameweek int) (ManagerPicks, error)
	FetchManagerTransfers(ctx context.Context, entryID int64) ([]ManagerTransfer, error)
}

// PlayerCatalog is the decoded bootstrap dataset: every player plus the
// gameweek schedule state.
type PlayerCatalog struct {
	CurrentGameweek  int
	FinishedGameweek int
	Players          []CatalogPlayer
}

type CatalogPlayer struct {
	ID           int64
	Name         string
	Team         string
	Position     string
	Price        int
	OwnershipPct float64
	EventPoints  int
	TotalPoints  int
}

type LeagueStandingsPage struct {
	LeagueID      int64
	Name          string
	LeagueType    string
	Scoring       string
	StartGameweek int
	Privacy       string
	Page          int
	HasNext       bool
	Entries       []StandingsEntry
}

type StandingsEntry struct {
	EntryID        int64
	ManagerName    string
	TeamName       string
	Rank           int
	TotalPoints    int
	GameweekPoints int
}

type ManagerSummary struct {
	EntryID         int64
	ManagerName     string
	TeamName        string
	Region          string
	OverallPoints   int
	OverallRank     int
	CurrentGameweek int
}

type ManagerHistory struct {
	Rows  []ManagerHistoryRow
	Chips []ChipPlay
}

type ManagerHistoryRow struct {
	Gameweek     int
	Points       int
	TotalPoints  int
	OverallRank  int
	Bank         int
	SquadValue   int
	Transfers    int
	TransferCost int
	BenchPoints  int
}

type ChipPlay struct {
	Name     string
	Gameweek int
}

type ManagerPicks struct {
	EntryID    int64
	Gameweek   int
	ActiveChip string
	Picks      []PickEntry
	AutoSubs   []AutoSubEntry
}

type PickEntry struct {
	PlayerID      int64
	Position      int
	Multiplier    int
	IsCaptain     bool
	IsViceCaptain bool
}

type AutoSubEntry struct {
	PlayerInID  int64
	PlayerOutID int64
}

type ManagerTransfer struct {
	EntryID     int64
	Gameweek    int
	PlayerInID  int64
	PlayerOutID int64
}
