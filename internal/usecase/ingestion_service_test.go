package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpl-dashboard/internal/domain/gameweek"
	"fpl-dashboard/internal/domain/league"
	"fpl-dashboard/internal/infrastructure/repository/memory"
	"fpl-dashboard/internal/platform/logging"
	"fpl-dashboard/internal/usecase"
)

type picksKey struct {
	managerID int64
	gw        int
}

type stubUpstream struct {
	mu        sync.Mutex
	catalog   usecase.PlayerCatalog
	standings map[int64]map[int]usecase.LeagueStandingsPage
	summaries map[int64]usecase.ManagerSummary
	histories map[int64]usecase.ManagerHistory
	picks     map[picksKey]usecase.ManagerPicks
	transfers map[int64][]usecase.ManagerTransfer
	calls     map[string]int
}

func newStubUpstream() *stubUpstream {
	return &stubUpstream{
		standings: make(map[int64]map[int]usecase.LeagueStandingsPage),
		summaries: make(map[int64]usecase.ManagerSummary),
		histories: make(map[int64]usecase.ManagerHistory),
		picks:     make(map[picksKey]usecase.ManagerPicks),
		transfers: make(map[int64][]usecase.ManagerTransfer),
		calls:     make(map[string]int),
	}
}

func (s *stubUpstream) count(name string) {
	s.mu.Lock()
	s.calls[name]++
	s.mu.Unlock()
}

func (s *stubUpstream) callCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubUpstream) FetchPlayerCatalog(context.Context) (usecase.PlayerCatalog, error) {
	s.count("catalog")
	return s.catalog, nil
}

func (s *stubUpstream) FetchLeagueStandingsPage(_ context.Context, leagueID int64, page int) (usecase.LeagueStandingsPage, error) {
	s.count("standings")
	pages, ok := s.standings[leagueID]
	if !ok {
		return usecase.LeagueStandingsPage{}, usecase.ErrUpstreamNotFound
	}
	p, ok := pages[page]
	if !ok {
		return usecase.LeagueStandingsPage{}, usecase.ErrUpstreamNotFound
	}
	return p, nil
}

func (s *stubUpstream) FetchManagerSummary(_ context.Context, entryID int64) (usecase.ManagerSummary, error) {
	s.count("summary")
	summary, ok := s.summaries[entryID]
	if !ok {
		return usecase.ManagerSummary{}, usecase.ErrUpstreamNotFound
	}
	return summary, nil
}

func (s *stubUpstream) FetchManagerHistory(_ context.Context, entryID int64) (usecase.ManagerHistory, error) {
	s.count("history")
	s.mu.Lock()
	history, ok := s.histories[entryID]
	s.mu.Unlock()
	if !ok {
		return usecase.ManagerHistory{}, usecase.ErrUpstreamNotFound
	}
	return history, nil
}

func (s *stubUpstream) FetchManagerPicks(_ context.Context, entryID int64, gw int) (usecase.ManagerPicks, error) {
	s.count("picks")
	picks, ok := s.picks[picksKey{managerID: entryID, gw: gw}]
	if !ok {
		return usecase.ManagerPicks{}, usecase.ErrUpstreamNotFound
	}
	return picks, nil
}

func (s *stubUpstream) FetchManagerTransfers(_ context.Context, entryID int64) ([]usecase.ManagerTransfer, error) {
	s.count("transfers")
	return s.transfers[entryID], nil
}

func (s *stubUpstream) setHistory(entryID int64, history usecase.ManagerHistory) {
	s.mu.Lock()
	s.histories[entryID] = history
	s.mu.Unlock()
}

type ingestFixture struct {
	upstream  *stubUpstream
	leagues   *memory.LeagueRepository
	managers  *memory.ManagerRepository
	records   *memory.GameweekRepository
	players   *memory.PlayerRepository
	transfers *memory.TransferRepository
	service   *usecase.IngestionService
}

func newIngestFixture(t *testing.T, mutate func(cfg *usecase.IngestionConfig)) *ingestFixture {
	t.Helper()

	f := &ingestFixture{
		upstream:  newStubUpstream(),
		leagues:   memory.NewLeagueRepository(),
		managers:  memory.NewManagerRepository(),
		records:   memory.NewGameweekRepository(),
		players:   memory.NewPlayerRepository(),
		transfers: memory.NewTransferRepository(),
	}
	cfg := usecase.IngestionConfig{
		Upstream:  f.upstream,
		Leagues:   f.leagues,
		Managers:  f.managers,
		Records:   f.records,
		Players:   f.players,
		Transfers: f.transfers,
		Logger:    logging.NewNop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	f.service = usecase.NewIngestionService(cfg)
	return f
}

func historyOf(rows ...usecase.ManagerHistoryRow) usecase.ManagerHistory {
	return usecase.ManagerHistory{Rows: rows}
}

func row(gw, points, total int) usecase.ManagerHistoryRow {
	return usecase.ManagerHistoryRow{Gameweek: gw, Points: points, TotalPoints: total}
}

func TestRefreshPlayerCatalog_PersistsPlayers(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, nil)
	f.upstream.catalog = usecase.PlayerCatalog{
		CurrentGameweek:  5,
		FinishedGameweek: 4,
		Players: []usecase.CatalogPlayer{
			{ID: 1, Name: "Haaland", Team: "Man City", Position: "FWD", Price: 141, EventPoints: 13, TotalPoints: 52},
			{ID: 2, Name: "Salah", Team: "Liverpool", Position: "MID", Price: 129, EventPoints: 6, TotalPoints: 44},
		},
	}

	status, err := f.service.RefreshPlayerCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, status.CurrentGameweek)
	assert.Equal(t, 2, status.Players)
	assert.False(t, status.Stale)

	stored, ok, err := f.players.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Haaland", stored.Name)
	assert.Equal(t, 13, stored.EventPoints)
}

func TestIngestLeague_PaginatesAndStoresMembership(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, func(cfg *usecase.IngestionConfig) {
		cfg.PageSize = 2
	})
	header := usecase.LeagueStandingsPage{
		LeagueID:      101,
		Name:          "Office League",
		LeagueType:    "x",
		Scoring:       "c",
		StartGameweek: 1,
	}
	page1 := header
	page1.Page = 1
	page1.HasNext = true
	page1.Entries = []usecase.StandingsEntry{
		{EntryID: 11, ManagerName: "Grace", TeamName: "Bug Hunters", TotalPoints: 300},
		{EntryID: 12, ManagerName: "Alan", TeamName: "Enigma XI", TotalPoints: 290},
	}
	page2 := header
	page2.Page = 2
	page2.HasNext = true // stale upstream flag; the short page still ends pagination
	page2.Entries = []usecase.StandingsEntry{
		{EntryID: 13, ManagerName: "Edsger", TeamName: "Shortest Path", TotalPoints: 280},
	}
	f.upstream.standings[101] = map[int]usecase.LeagueStandingsPage{1: page1, 2: page2}

	members, err := f.service.IngestLeague(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 12, 13}, members)
	assert.Equal(t, 2, f.upstream.callCount("standings"))

	stored, ok, err := f.leagues.GetByID(context.Background(), 101)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Office League", stored.Name)

	listed, err := f.leagues.ListMembers(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, members, listed)

	m, ok, err := f.managers.GetByID(context.Background(), 13)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 280, m.OverallPoints)
}

func TestIngestLeague_DerivesTypeFromScoringCode(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, nil)
	page := usecase.LeagueStandingsPage{
		LeagueID:      202,
		Name:          "Cup Rivals",
		LeagueType:    "s",
		Scoring:       "h",
		StartGameweek: 1,
		Page:          1,
		Entries: []usecase.StandingsEntry{
			{EntryID: 21, ManagerName: "Barbara", TeamName: "Liskov XI", TotalPoints: 90},
		},
	}
	f.upstream.standings[202] = map[int]usecase.LeagueStandingsPage{1: page}

	_, err := f.service.IngestLeague(context.Background(), 202)
	require.NoError(t, err)

	stored, ok, err := f.leagues.GetByID(context.Background(), 202)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, league.TypeHeadToHead, stored.Type, "scoring code decides the mode")
	assert.Equal(t, "public", stored.Privacy, "league_type carries provenance")
}

func TestIngestLeague_UnknownLeague(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, nil)

	_, err := f.service.IngestLeague(context.Background(), 404404)
	assert.ErrorIs(t, err, usecase.ErrLeagueNotFound)
}

func TestIngestManagerHistory_MarksSettledGameweeksFinalized(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, nil)
	f.upstream.catalog = usecase.PlayerCatalog{CurrentGameweek: 3}
	f.upstream.setHistory(7, usecase.ManagerHistory{
		Rows: []usecase.ManagerHistoryRow{row(1, 60, 60), row(2, 55, 115), row(3, 20, 135)},
		Chips: []usecase.ChipPlay{
			{Name: "wildcard", Gameweek: 2},
		},
	})

	written, err := f.service.IngestManagerHistory(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	recs, err := f.records.ListByManager(context.Background(), 7, 0, 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.True(t, recs[0].Finalized)
	assert.True(t, recs[1].Finalized)
	assert.False(t, recs[2].Finalized, "current gameweek is still live")
	assert.Equal(t, gameweek.ChipWildcard, recs[1].ChipPlayed)
}

func TestIngestManagerHistory_CreatesManagerOnFirstSight(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, nil)
	f.upstream.catalog = usecase.PlayerCatalog{CurrentGameweek: 2}
	f.upstream.setHistory(7, historyOf(row(1, 60, 60), row(2, 55, 115)))

	_, err := f.service.IngestManagerHistory(context.Background(), 7)
	require.NoError(t, err)

	m, ok, err := f.managers.GetByID(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, ok, "records never reference an unknown manager")
	assert.Equal(t, int64(7), m.ID)
}

func TestIngestManagerHistory_Idempotent(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, nil)
	f.upstream.catalog = usecase.PlayerCatalog{CurrentGameweek: 3}
	f.upstream.setHistory(7, historyOf(row(1, 60, 60), row(2, 55, 115)))

	_, err := f.service.IngestManagerHistory(context.Background(), 7)
	require.NoError(t, err)
	_, err = f.service.IngestManagerHistory(context.Background(), 7)
	require.NoError(t, err, "matching re-ingest of finalized records is a no-op")

	recs, err := f.records.ListByManager(context.Background(), 7, 0, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestIngestManagerHistory_FinalizedConflict(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, nil)
	f.upstream.catalog = usecase.PlayerCatalog{CurrentGameweek: 3}
	f.upstream.setHistory(7, historyOf(row(1, 60, 60), row(2, 55, 115)))

	_, err := f.service.IngestManagerHistory(context.Background(), 7)
	require.NoError(t, err)

	// Upstream rewrites a settled week's score. The stored record wins.
	f.upstream.setHistory(7, historyOf(row(1, 61, 61), row(2, 55, 116)))
	_, err = f.service.IngestManagerHistory(context.Background(), 7)
	assert.ErrorIs(t, err, gameweek.ErrFinalizedConflict)

	recs, err := f.records.ListByManager(context.Background(), 7, 1, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 60, recs[0].Points, "finalized record must keep its original score")
}

func TestIngestManagerHistory_RejectsDecreasingTotals(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, nil)
	f.upstream.catalog = usecase.PlayerCatalog{CurrentGameweek: 3}
	f.upstream.setHistory(7, historyOf(row(1, 60, 60), row(2, 55, 50)))

	_, err := f.service.IngestManagerHistory(context.Background(), 7)
	assert.ErrorIs(t, err, usecase.ErrIngestValidation)
}

func TestIngestManagerGameweek_AnnotatesLivePicks(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, nil)
	f.upstream.catalog = usecase.PlayerCatalog{
		CurrentGameweek: 3,
		Players: []usecase.CatalogPlayer{
			{ID: 5, Name: "Saka", EventPoints: 9},
			{ID: 6, Name: "Watkins", EventPoints: 2},
		},
	}
	f.upstream.setHistory(7, historyOf(row(1, 60, 60), row(2, 55, 115), row(3, 20, 135)))
	f.upstream.picks[picksKey{managerID: 7, gw: 3}] = usecase.ManagerPicks{
		EntryID:    7,
		Gameweek:   3,
		ActiveChip: "3xc",
		Picks: []usecase.PickEntry{
			{PlayerID: 5, Position: 1, Multiplier: 3, IsCaptain: true},
			{PlayerID: 6, Position: 2, Multiplier: 1},
		},
	}

	rec, err := f.service.IngestManagerGameweek(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.False(t, rec.Finalized)
	assert.Equal(t, gameweek.ChipTripleCaptain, rec.ChipPlayed)

	captain, ok := rec.Captain()
	require.True(t, ok)
	assert.Equal(t, int64(5), captain.PlayerID)
	assert.Equal(t, 9, captain.Points, "live picks carry catalog event points")
}

func TestIngestManagerGameweek_BackfillsFirstGameweekAfterHistory(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, nil)
	f.upstream.catalog = usecase.PlayerCatalog{CurrentGameweek: 3}
	f.upstream.setHistory(7, historyOf(row(1, 60, 60), row(2, 55, 115), row(3, 20, 135)))
	f.upstream.picks[picksKey{managerID: 7, gw: 1}] = usecase.ManagerPicks{
		EntryID:  7,
		Gameweek: 1,
		Picks: []usecase.PickEntry{
			{PlayerID: 5, Position: 1, Multiplier: 2, IsCaptain: true},
		},
	}

	_, err := f.service.IngestManagerHistory(context.Background(), 7)
	require.NoError(t, err)

	// Re-ingesting the opening gameweek must not trip the total-points
	// check against the later records already stored.
	rec, err := f.service.IngestManagerGameweek(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.Equal(t, 60, rec.TotalPoints)
	assert.Len(t, rec.Picks, 1)
}

func TestIngestManagerGameweek_FutureGameweek(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, nil)
	f.upstream.catalog = usecase.PlayerCatalog{CurrentGameweek: 3}
	f.upstream.setHistory(7, historyOf(row(1, 60, 60)))

	_, err := f.service.IngestManagerGameweek(context.Background(), 7, 4)
	assert.ErrorIs(t, err, usecase.ErrInvalidInput)
}

func TestIngestManagerGameweek_MissingPicksStoresScoringOnly(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, nil)
	f.upstream.catalog = usecase.PlayerCatalog{CurrentGameweek: 3}
	f.upstream.setHistory(7, historyOf(row(1, 60, 60), row(2, 55, 115), row(3, 20, 135)))

	rec, err := f.service.IngestManagerGameweek(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.True(t, rec.Finalized)
	assert.Empty(t, rec.Picks)
	assert.Equal(t, 55, rec.Points)
}

func TestIngestManagerTransfers_ReplacesHistory(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, nil)
	f.upstream.transfers[7] = []usecase.ManagerTransfer{
		{EntryID: 7, Gameweek: 2, PlayerInID: 5, PlayerOutID: 6},
		{EntryID: 7, Gameweek: 3, PlayerInID: 8, PlayerOutID: 5},
	}

	n, err := f.service.IngestManagerTransfers(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, err := f.transfers.ListByManager(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(8), items[1].PlayerInID)
}

func TestRefreshLeague_FansOutOverMembers(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, func(cfg *usecase.IngestionConfig) {
		cfg.Workers = 2
	})
	f.upstream.catalog = usecase.PlayerCatalog{CurrentGameweek: 2}
	page := usecase.LeagueStandingsPage{
		LeagueID:      101,
		Name:          "Office League",
		LeagueType:    "x",
		Scoring:       "c",
		StartGameweek: 1,
		Page:          1,
		Entries: []usecase.StandingsEntry{
			{EntryID: 11, ManagerName: "Grace", TotalPoints: 120},
			{EntryID: 12, ManagerName: "Alan", TotalPoints: 110},
			{EntryID: 13, ManagerName: "Edsger", TotalPoints: 100},
		},
	}
	f.upstream.standings[101] = map[int]usecase.LeagueStandingsPage{1: page}
	for _, id := range []int64{11, 12, 13} {
		f.upstream.summaries[id] = usecase.ManagerSummary{
			EntryID: id, ManagerName: "Manager", OverallPoints: 100, CurrentGameweek: 2,
		}
		f.upstream.setHistory(id, historyOf(row(1, 60, 60), row(2, 40, 100)))
	}

	report, err := f.service.RefreshLeague(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Members)
	assert.Zero(t, report.Failed)

	for _, id := range []int64{11, 12, 13} {
		recs, err := f.records.ListByManager(context.Background(), id, 0, 0)
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	}
}

func TestRefreshLeague_CountsFailedMembers(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, nil)
	f.upstream.catalog = usecase.PlayerCatalog{CurrentGameweek: 2}
	page := usecase.LeagueStandingsPage{
		LeagueID:      101,
		Name:          "Office League",
		LeagueType:    "x",
		Scoring:       "c",
		StartGameweek: 1,
		Page:          1,
		Entries: []usecase.StandingsEntry{
			{EntryID: 11, ManagerName: "Grace", TotalPoints: 120},
			{EntryID: 12, ManagerName: "Alan", TotalPoints: 110},
		},
	}
	f.upstream.standings[101] = map[int]usecase.LeagueStandingsPage{1: page}
	// Only manager 11 resolves upstream; 12 is gone.
	f.upstream.summaries[11] = usecase.ManagerSummary{EntryID: 11, ManagerName: "Grace", CurrentGameweek: 2}
	f.upstream.setHistory(11, historyOf(row(1, 60, 60), row(2, 40, 100)))

	report, err := f.service.RefreshLeague(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Members)
	assert.Equal(t, 1, report.Failed)
}

func TestRefreshLeague_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, nil)
	f.upstream.catalog = usecase.PlayerCatalog{CurrentGameweek: 2}
	page := usecase.LeagueStandingsPage{
		LeagueID:      101,
		Name:          "Office League",
		LeagueType:    "x",
		Scoring:       "c",
		StartGameweek: 1,
		Page:          1,
		Entries: []usecase.StandingsEntry{
			{EntryID: 11, ManagerName: "Grace", TotalPoints: 120},
		},
	}
	f.upstream.standings[101] = map[int]usecase.LeagueStandingsPage{1: page}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.RefreshLeague(ctx, 101)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.upstream.callCount("summary"), "no member work after cancellation")
}

func TestIngestManagerSummary_NotFound(t *testing.T) {
	t.Parallel()

	f := newIngestFixture(t, nil)

	_, err := f.service.IngestManagerSummary(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, usecase.ErrManagerNotFound))
}
