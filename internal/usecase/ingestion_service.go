package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"fpl-dashboard/internal/domain/gameweek"
	"fpl-dashboard/internal/domain/league"
	"fpl-dashboard/internal/domain/manager"
	"fpl-dashboard/internal/domain/player"
	"fpl-dashboard/internal/domain/transfer"
	"fpl-dashboard/internal/platform/cache"
	"fpl-dashboard/internal/platform/logging"
	"fpl-dashboard/internal/platform/metrics"
)

const (
	defaultStandingsPageSize = 50
	defaultMaxStandingsPages = 40
	defaultRefreshWorkers    = 4
)

// IngestionConfig wires the pipeline. Upstream, Cache and the repositories
// are required; everything else has a sensible default.
type IngestionConfig struct {
	Upstream  UpstreamClient
	Leagues   league.Repository
	Managers  manager.Repository
	Records   gameweek.Repository
	Players   player.Repository
	Transfers transfer.Repository
	Cache     *cache.Store
	Logger    *logging.Logger
	Freshness FreshnessPolicies
	Finality  FinalityPolicy
	// PageSize is the upstream standings page size; a shorter page marks
	// the last page even when has_next is absent.
	PageSize int
	// MaxPages caps standings pagination per league.
	MaxPages int
	// Workers bounds the league refresh fan-out.
	Workers int
}

// IngestionService pulls upstream data through the cache, normalizes it
// into domain entities and writes it to the historical store. Writes for
// one manager are serialized; writes for different managers may proceed
// concurrently.
type IngestionService struct {
	upstream  UpstreamClient
	leagues   league.Repository
	managers  manager.Repository
	records   gameweek.Repository
	players   player.Repository
	transfers transfer.Repository
	cache     *cache.Store
	logger    *logging.Logger
	freshness FreshnessPolicies
	finality  FinalityPolicy
	pageSize  int
	maxPages  int
	workers   int
	locks     managerLocks
}

func NewIngestionService(cfg IngestionConfig) *IngestionService {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Finality == nil {
		cfg.Finality = DefaultFinalityPolicy
	}
	if cfg.Freshness == (FreshnessPolicies{}) {
		cfg.Freshness = DefaultFreshnessPolicies()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultStandingsPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxStandingsPages
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultRefreshWorkers
	}

	return &IngestionService{
		upstream:  cfg.Upstream,
		leagues:   cfg.Leagues,
		managers:  cfg.Managers,
		records:   cfg.Records,
		players:   cfg.Players,
		transfers: cfg.Transfers,
		cache:     cfg.Cache,
		logger:    cfg.Logger,
		freshness: cfg.Freshness,
		finality:  cfg.Finality,
		pageSize:  cfg.PageSize,
		maxPages:  cfg.MaxPages,
		workers:   cfg.Workers,
	}
}

// managerLocks serializes writes per manager id.
type managerLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (m *managerLocks) lock(managerID int64) func() {
	m.mu.Lock()
	if m.locks == nil {
		m.locks = make(map[int64]*sync.Mutex)
	}
	l, ok := m.locks[managerID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[managerID] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// fetchCached runs the loader through the cache and unwraps the result.
// A stale fallback is reported as stale=true with a nil error.
func fetchCached[T any](ctx context.Context, store *cache.Store, key string, policy cache.Policy, load func(context.Context) (T, error)) (T, bool, error) {
	var zero T
	if store == nil {
		value, err := load(ctx)
		return value, false, err
	}

	value, err := store.GetOrLoad(ctx, key, policy, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		if errors.Is(err, cache.ErrServedStale) {
			if typed, ok := value.(T); ok {
				return typed, true, nil
			}
		}
		return zero, false, err
	}

	typed, ok := value.(T)
	if !ok {
		return zero, false, fmt.Errorf("cache entry %q holds %T", key, value)
	}
	return typed, false, nil
}

// CatalogStatus is what a catalog refresh reports back: gameweek schedule
// state plus whether the data came from a stale fallback.
type CatalogStatus struct {
	CurrentGameweek  int
	FinishedGameweek int
	Players          int
	Stale            bool
}

// RefreshPlayerCatalog pulls the bootstrap dataset and rewrites the player
// catalog. The catalog cache class makes repeat calls cheap.
func (s *IngestionService) RefreshPlayerCatalog(ctx context.Context) (CatalogStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "IngestionService.RefreshPlayerCatalog")
	defer span.End()

	catalog, stale, err := s.catalog(ctx)
	if err != nil {
		return CatalogStatus{}, err
	}

	players := make([]player.Player, 0, len(catalog.Players))
	for _, cp := range catalog.Players {
		p := player.Player{
			ID:           cp.ID,
			Name:         cp.Name,
			Team:         cp.Team,
			Position:     cp.Position,
			Price:        cp.Price,
			OwnershipPct: cp.OwnershipPct,
			EventPoints:  cp.EventPoints,
			TotalPoints:  cp.TotalPoints,
		}
		if err := p.Validate(); err != nil {
			return CatalogStatus{}, fmt.Errorf("%w: player %d: %v", ErrIngestValidation, cp.ID, err)
		}
		players = append(players, p)
	}
	if err := s.players.UpsertMany(ctx, players); err != nil {
		return CatalogStatus{}, fmt.Errorf("store player catalog: %w", err)
	}

	s.logger.InfoContext(ctx, "player catalog refreshed",
		"players", len(players),
		"current_gameweek", catalog.CurrentGameweek,
		"stale", stale,
	)
	return CatalogStatus{
		CurrentGameweek:  catalog.CurrentGameweek,
		FinishedGameweek: catalog.FinishedGameweek,
		Players:          len(players),
		Stale:            stale,
	}, nil
}

func (s *IngestionService) catalog(ctx context.Context) (PlayerCatalog, bool, error) {
	return fetchCached(ctx, s.cache, keyPlayerCatalog(), s.freshness.Catalog, func(ctx context.Context) (PlayerCatalog, error) {
		return s.upstream.FetchPlayerCatalog(ctx)
	})
}

// CurrentGameweek resolves the active gameweek from the catalog.
func (s *IngestionService) CurrentGameweek(ctx context.Context) (int, error) {
	catalog, _, err := s.catalog(ctx)
	if err != nil {
		return 0, err
	}
	if catalog.CurrentGameweek <= 0 {
		return 0, fmt.Errorf("%w: no current gameweek in catalog", ErrUpstreamMalformed)
	}
	return catalog.CurrentGameweek, nil
}

// IngestLeague fetches a league's standings pages, stores the league and
// its membership, and refreshes each member's summary row. It returns the
// member ids in standings order.
func (s *IngestionService) IngestLeague(ctx context.Context, leagueID int64) ([]int64, error) {
	ctx, span := startUsecaseSpan(ctx, "IngestionService.IngestLeague")
	defer span.End()

	if leagueID <= 0 {
		return nil, fmt.Errorf("%w: league id must be greater than zero", ErrInvalidInput)
	}

	var (
		members []int64
		stored  bool
	)
	for page := 1; page <= s.maxPages; page++ {
		pageData, stale, err := fetchCached(ctx, s.cache, keyLeaguePage(leagueID, page), s.freshness.League, func(ctx context.Context) (LeagueStandingsPage, error) {
			return s.upstream.FetchLeagueStandingsPage(ctx, leagueID, page)
		})
		if err != nil {
			if errors.Is(err, ErrUpstreamNotFound) && page == 1 {
				return nil, fmt.Errorf("%w: league %d", ErrLeagueNotFound, leagueID)
			}
			return nil, err
		}
		if stale {
			s.logger.WarnContext(ctx, "serving stale league standings page",
				"league_id", leagueID, "page", page)
		}

		if !stored {
			leagueType, err := league.ParseType(pageData.Scoring)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
			}
			l := league.League{
				ID:            pageData.LeagueID,
				Name:          pageData.Name,
				Type:          leagueType,
				Scoring:       pageData.Scoring,
				StartGameweek: pageData.StartGameweek,
				Privacy:       league.ParsePrivacy(pageData.LeagueType, pageData.Privacy),
			}
			if l.StartGameweek <= 0 {
				l.StartGameweek = 1
			}
			if err := l.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrIngestValidation, err)
			}
			if err := s.leagues.Upsert(ctx, l); err != nil {
				return nil, fmt.Errorf("store league: %w", err)
			}
			stored = true
		}

		for _, e := range pageData.Entries {
			m := manager.Manager{
				ID:            e.EntryID,
				Name:          e.ManagerName,
				TeamName:      e.TeamName,
				OverallPoints: e.TotalPoints,
			}
			if err := m.Validate(); err != nil {
				return nil, fmt.Errorf("%w: entry %d: %v", ErrIngestValidation, e.EntryID, err)
			}
			if err := s.upsertManagerPreservingSummary(ctx, m); err != nil {
				return nil, fmt.Errorf("store manager: %w", err)
			}
			members = append(members, e.EntryID)
		}

		// A short page is the last one even when has_next lies.
		if !pageData.HasNext || len(pageData.Entries) < s.pageSize {
			break
		}
	}

	if err := s.leagues.ReplaceMembers(ctx, leagueID, members); err != nil {
		return nil, fmt.Errorf("store league members: %w", err)
	}

	s.logger.InfoContext(ctx, "league ingested", "league_id", leagueID, "members", len(members))
	return members, nil
}

// upsertManagerPreservingSummary keeps richer fields from a previous
// summary ingest when the standings row carries less.
func (s *IngestionService) upsertManagerPreservingSummary(ctx context.Context, m manager.Manager) error {
	existing, ok, err := s.managers.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	if ok {
		if m.Region == "" {
			m.Region = existing.Region
		}
		if m.OverallRank == 0 {
			m.OverallRank = existing.OverallRank
		}
		if m.CurrentGameweek == 0 {
			m.CurrentGameweek = existing.CurrentGameweek
		}
	}
	return s.managers.Upsert(ctx, m)
}

// ensureManager writes a minimal manager row on first sight so gameweek
// records never reference a manager the store does not know. A later
// summary or standings ingest fills in the real names.
func (s *IngestionService) ensureManager(ctx context.Context, managerID int64) error {
	_, ok, err := s.managers.GetByID(ctx, managerID)
	if err != nil || ok {
		return err
	}
	m := manager.Manager{ID: managerID, TeamName: fmt.Sprintf("entry %d", managerID)}
	if err := s.managers.Upsert(ctx, m); err != nil {
		return fmt.Errorf("store manager: %w", err)
	}
	return nil
}

// IngestManagerSummary refreshes a manager's entry row from upstream.
func (s *IngestionService) IngestManagerSummary(ctx context.Context, managerID int64) (manager.Manager, error) {
	ctx, span := startUsecaseSpan(ctx, "IngestionService.IngestManagerSummary")
	defer span.End()

	if managerID <= 0 {
		return manager.Manager{}, fmt.Errorf("%w: manager id must be greater than zero", ErrInvalidInput)
	}

	summary, stale, err := fetchCached(ctx, s.cache, keyManagerSummary(managerID), s.freshness.League, func(ctx context.Context) (ManagerSummary, error) {
		return s.upstream.FetchManagerSummary(ctx, managerID)
	})
	if err != nil {
		if errors.Is(err, ErrUpstreamNotFound) {
			return manager.Manager{}, fmt.Errorf("%w: manager %d", ErrManagerNotFound, managerID)
		}
		return manager.Manager{}, err
	}
	if stale {
		s.logger.WarnContext(ctx, "serving stale manager summary", "manager_id", managerID)
	}

	m := manager.Manager{
		ID:              summary.EntryID,
		Name:            summary.ManagerName,
		TeamName:        summary.TeamName,
		Region:          summary.Region,
		OverallPoints:   summary.OverallPoints,
		OverallRank:     summary.OverallRank,
		CurrentGameweek: summary.CurrentGameweek,
	}
	if err := m.Validate(); err != nil {
		return manager.Manager{}, fmt.Errorf("%w: %v", ErrIngestValidation, err)
	}

	unlock := s.locks.lock(managerID)
	defer unlock()
	if err := s.managers.Upsert(ctx, m); err != nil {
		return manager.Manager{}, fmt.Errorf("store manager: %w", err)
	}
	return m, nil
}

// IngestManagerHistory pulls a manager's season history and writes one
// gameweek record per row. Rows before the current gameweek are marked
// finalized per the finality policy; picks are not part of the history
// endpoint and are left empty here.
func (s *IngestionService) IngestManagerHistory(ctx context.Context, managerID int64) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "IngestionService.IngestManagerHistory")
	defer span.End()

	if managerID <= 0 {
		return 0, fmt.Errorf("%w: manager id must be greater than zero", ErrInvalidInput)
	}

	currentGw, err := s.CurrentGameweek(ctx)
	if err != nil {
		return 0, err
	}

	history, stale, err := fetchCached(ctx, s.cache, keyManagerHistory(managerID), s.historyPolicy(), func(ctx context.Context) (ManagerHistory, error) {
		return s.upstream.FetchManagerHistory(ctx, managerID)
	})
	if err != nil {
		if errors.Is(err, ErrUpstreamNotFound) {
			return 0, fmt.Errorf("%w: manager %d", ErrManagerNotFound, managerID)
		}
		return 0, err
	}
	if stale {
		s.logger.WarnContext(ctx, "serving stale manager history", "manager_id", managerID)
	}

	chipByGw := make(map[int]gameweek.Chip, len(history.Chips))
	for _, c := range history.Chips {
		chip, err := gameweek.ParseChip(c.Name)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
		}
		chipByGw[c.Gameweek] = chip
	}

	unlock := s.locks.lock(managerID)
	defer unlock()

	if err := s.ensureManager(ctx, managerID); err != nil {
		return 0, err
	}

	written := 0
	prevTotal := -1
	for _, row := range history.Rows {
		if prevTotal >= 0 && row.TotalPoints < prevTotal {
			return written, fmt.Errorf("%w: manager %d total points decreased at gameweek %d",
				ErrIngestValidation, managerID, row.Gameweek)
		}
		prevTotal = row.TotalPoints

		rec := gameweek.Record{
			ManagerID:    managerID,
			Gameweek:     row.Gameweek,
			Points:       row.Points,
			TotalPoints:  row.TotalPoints,
			OverallRank:  row.OverallRank,
			Bank:         row.Bank,
			SquadValue:   row.SquadValue,
			Transfers:    row.Transfers,
			TransferCost: row.TransferCost,
			BenchPoints:  row.BenchPoints,
			ChipPlayed:   chipByGw[row.Gameweek],
			Finalized:    s.finality(row.Gameweek, currentGw),
		}
		if err := rec.Validate(); err != nil {
			return written, fmt.Errorf("%w: manager %d gameweek %d: %v",
				ErrIngestValidation, managerID, row.Gameweek, err)
		}
		if err := s.upsertRecord(ctx, rec); err != nil {
			return written, err
		}
		written++
	}

	return written, nil
}

// historyPolicy: the tail of the history moves while a gameweek is live,
// so history rides the live class rather than the finalized one.
func (s *IngestionService) historyPolicy() cache.Policy {
	return s.freshness.Live
}

// IngestManagerGameweek ingests one manager's record for one gameweek,
// including the squad picks. For the current gameweek each pick is
// annotated with the player's live score from the catalog.
func (s *IngestionService) IngestManagerGameweek(ctx context.Context, managerID int64, gw int) (gameweek.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "IngestionService.IngestManagerGameweek")
	defer span.End()

	if managerID <= 0 || gw <= 0 {
		return gameweek.Record{}, fmt.Errorf("%w: manager id and gameweek must be greater than zero", ErrInvalidInput)
	}

	catalog, _, err := s.catalog(ctx)
	if err != nil {
		return gameweek.Record{}, err
	}
	currentGw := catalog.CurrentGameweek
	if gw > currentGw {
		return gameweek.Record{}, fmt.Errorf("%w: gameweek %d has not started", ErrInvalidInput, gw)
	}

	history, _, err := fetchCached(ctx, s.cache, keyManagerHistory(managerID), s.historyPolicy(), func(ctx context.Context) (ManagerHistory, error) {
		return s.upstream.FetchManagerHistory(ctx, managerID)
	})
	if err != nil {
		if errors.Is(err, ErrUpstreamNotFound) {
			return gameweek.Record{}, fmt.Errorf("%w: manager %d", ErrManagerNotFound, managerID)
		}
		return gameweek.Record{}, err
	}

	var row ManagerHistoryRow
	found := false
	for _, r := range history.Rows {
		if r.Gameweek == gw {
			row = r
			found = true
			break
		}
	}
	if !found {
		return gameweek.Record{}, fmt.Errorf("%w: manager %d has no gameweek %d", ErrIngestValidation, managerID, gw)
	}

	final := s.finality(gw, currentGw)
	picksPolicy := s.freshness.Live
	if final {
		picksPolicy = s.freshness.Finalized
	}
	picks, _, picksErr := fetchCached(ctx, s.cache, keyManagerPicks(managerID, gw), picksPolicy, func(ctx context.Context) (ManagerPicks, error) {
		return s.upstream.FetchManagerPicks(ctx, managerID, gw)
	})
	if picksErr != nil && !errors.Is(picksErr, ErrUpstreamNotFound) {
		return gameweek.Record{}, picksErr
	}
	if errors.Is(picksErr, ErrUpstreamNotFound) {
		s.logger.WarnContext(ctx, "no picks for gameweek, storing scoring only",
			"manager_id", managerID, "gameweek", gw)
	}

	rec := gameweek.Record{
		ManagerID:    managerID,
		Gameweek:     gw,
		Points:       row.Points,
		TotalPoints:  row.TotalPoints,
		OverallRank:  row.OverallRank,
		Bank:         row.Bank,
		SquadValue:   row.SquadValue,
		Transfers:    row.Transfers,
		TransferCost: row.TransferCost,
		BenchPoints:  row.BenchPoints,
		Finalized:    final,
	}
	if picksErr == nil {
		chip, err := gameweek.ParseChip(picks.ActiveChip)
		if err != nil {
			return gameweek.Record{}, fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
		}
		rec.ChipPlayed = chip

		pointsByPlayer := map[int64]int{}
		if gw == currentGw {
			for _, cp := range catalog.Players {
				pointsByPlayer[cp.ID] = cp.EventPoints
			}
		}
		rec.Picks = make([]gameweek.Pick, 0, len(picks.Picks))
		for _, p := range picks.Picks {
			rec.Picks = append(rec.Picks, gameweek.Pick{
				PlayerID:      p.PlayerID,
				Position:      p.Position,
				Multiplier:    p.Multiplier,
				IsCaptain:     p.IsCaptain,
				IsViceCaptain: p.IsViceCaptain,
				Points:        pointsByPlayer[p.PlayerID],
			})
		}
		rec.AutoSubs = make([]gameweek.AutoSub, 0, len(picks.AutoSubs))
		for _, sub := range picks.AutoSubs {
			rec.AutoSubs = append(rec.AutoSubs, gameweek.AutoSub{
				PlayerInID:  sub.PlayerInID,
				PlayerOutID: sub.PlayerOutID,
			})
		}
	}
	if err := rec.Validate(); err != nil {
		return gameweek.Record{}, fmt.Errorf("%w: %v", ErrIngestValidation, err)
	}

	unlock := s.locks.lock(managerID)
	defer unlock()

	if err := s.ensureManager(ctx, managerID); err != nil {
		return gameweek.Record{}, err
	}
	if err := s.checkMonotonicTotals(ctx, rec); err != nil {
		return gameweek.Record{}, err
	}
	if err := s.upsertRecord(ctx, rec); err != nil {
		return gameweek.Record{}, err
	}

	return rec, nil
}

// checkMonotonicTotals rejects a record whose running total decreases
// relative to its stored neighbors.
func (s *IngestionService) checkMonotonicTotals(ctx context.Context, rec gameweek.Record) error {
	// Gameweek 1 has no lower neighbor; to=0 would mean an unbounded range.
	if rec.Gameweek > 1 {
		before, err := s.records.ListByManager(ctx, rec.ManagerID, 0, rec.Gameweek-1)
		if err != nil {
			return err
		}
		if n := len(before); n > 0 && before[n-1].TotalPoints > rec.TotalPoints {
			return fmt.Errorf("%w: manager %d total points decreased at gameweek %d",
				ErrIngestValidation, rec.ManagerID, rec.Gameweek)
		}
	}

	after, err := s.records.ListByManager(ctx, rec.ManagerID, rec.Gameweek+1, 0)
	if err != nil {
		return err
	}
	if len(after) > 0 && after[0].TotalPoints < rec.TotalPoints {
		return fmt.Errorf("%w: manager %d total points decreased after gameweek %d",
			ErrIngestValidation, rec.ManagerID, rec.Gameweek)
	}

	return nil
}

func (s *IngestionService) upsertRecord(ctx context.Context, rec gameweek.Record) error {
	err := s.records.Upsert(ctx, rec)
	if errors.Is(err, gameweek.ErrFinalizedConflict) {
		metrics.FinalizedConflicts.Inc()
		s.logger.ErrorContext(ctx, "finalized record conflict",
			"manager_id", rec.ManagerID, "gameweek", rec.Gameweek)
		return err
	}
	if err != nil {
		return fmt.Errorf("store gameweek record: %w", err)
	}
	return nil
}

// IngestManagerTransfers replaces a manager's transfer history with the
// upstream's full list.
func (s *IngestionService) IngestManagerTransfers(ctx context.Context, managerID int64) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "IngestionService.IngestManagerTransfers")
	defer span.End()

	if managerID <= 0 {
		return 0, fmt.Errorf("%w: manager id must be greater than zero", ErrInvalidInput)
	}

	rows, stale, err := fetchCached(ctx, s.cache, keyManagerTransfers(managerID), s.freshness.League, func(ctx context.Context) ([]ManagerTransfer, error) {
		return s.upstream.FetchManagerTransfers(ctx, managerID)
	})
	if err != nil {
		if errors.Is(err, ErrUpstreamNotFound) {
			return 0, fmt.Errorf("%w: manager %d", ErrManagerNotFound, managerID)
		}
		return 0, err
	}
	if stale {
		s.logger.WarnContext(ctx, "serving stale transfer history", "manager_id", managerID)
	}

	items := make([]transfer.Transfer, 0, len(rows))
	for _, r := range rows {
		t := transfer.Transfer{
			ManagerID:   managerID,
			Gameweek:    r.Gameweek,
			PlayerInID:  r.PlayerInID,
			PlayerOutID: r.PlayerOutID,
		}
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrIngestValidation, err)
		}
		items = append(items, t)
	}

	unlock := s.locks.lock(managerID)
	defer unlock()
	if err := s.transfers.ReplaceByManager(ctx, managerID, items); err != nil {
		return 0, fmt.Errorf("store transfers: %w", err)
	}

	return len(items), nil
}

// RefreshReport summarizes a league-wide refresh.
type RefreshReport struct {
	LeagueID int64
	Members  int
	Failed   int
}

// RefreshLeague ingests the league and fans out a full refresh of every
// member: summary, season history, current-gameweek picks and transfers.
// The fan-out is bounded by the worker pool so the upstream rate ceiling
// holds, and submission stops as soon as ctx is cancelled. A member that
// fails is logged and counted, not fatal.
func (s *IngestionService) RefreshLeague(ctx context.Context, leagueID int64) (RefreshReport, error) {
	ctx, span := startUsecaseSpan(ctx, "IngestionService.RefreshLeague")
	defer span.End()

	if _, err := s.RefreshPlayerCatalog(ctx); err != nil {
		return RefreshReport{}, err
	}
	currentGw, err := s.CurrentGameweek(ctx)
	if err != nil {
		return RefreshReport{}, err
	}

	members, err := s.IngestLeague(ctx, leagueID)
	if err != nil {
		return RefreshReport{}, err
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return RefreshReport{}, fmt.Errorf("refresh worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		failMu sync.Mutex
		failed int
	)
	for _, managerID := range members {
		if ctx.Err() != nil {
			break
		}
		managerID := managerID
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := s.refreshMember(ctx, managerID, currentGw); err != nil {
				failMu.Lock()
				failed++
				failMu.Unlock()
				s.logger.WarnContext(ctx, "member refresh failed",
					"league_id", leagueID, "manager_id", managerID, "error", err)
			}
		})
		if submitErr != nil {
			wg.Done()
			failMu.Lock()
			failed++
			failMu.Unlock()
		}
	}
	wg.Wait()

	report := RefreshReport{LeagueID: leagueID, Members: len(members), Failed: failed}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return report, ctxErr
	}

	s.logger.InfoContext(ctx, "league refreshed",
		"league_id", leagueID, "members", report.Members, "failed", report.Failed)
	return report, nil
}

func (s *IngestionService) refreshMember(ctx context.Context, managerID int64, currentGw int) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.invalidateManager(ctx, managerID, currentGw)
	if _, err := s.IngestManagerSummary(ctx, managerID); err != nil {
		return err
	}
	if _, err := s.IngestManagerHistory(ctx, managerID); err != nil {
		return err
	}
	if currentGw > 0 {
		if _, err := s.IngestManagerGameweek(ctx, managerID, currentGw); err != nil {
			return err
		}
	}
	if _, err := s.IngestManagerTransfers(ctx, managerID); err != nil {
		return err
	}
	return nil
}

// invalidateManager drops the manager's cached upstream payloads so a
// league refresh always re-reads the wire instead of serving TTL leftovers.
func (s *IngestionService) invalidateManager(ctx context.Context, managerID int64, currentGw int) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(ctx, keyManagerSummary(managerID))
	s.cache.Delete(ctx, keyManagerHistory(managerID))
	s.cache.Delete(ctx, keyManagerTransfers(managerID))
	if currentGw > 0 {
		s.cache.Delete(ctx, keyManagerPicks(managerID, currentGw))
	}
}
