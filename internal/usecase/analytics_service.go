package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"fpl-dashboard/internal/domain/gameweek"
	"fpl-dashboard/internal/domain/league"
	"fpl-dashboard/internal/domain/manager"
	"fpl-dashboard/internal/domain/player"
	"fpl-dashboard/internal/domain/transfer"
	"fpl-dashboard/internal/platform/logging"
)

// AnalyticsService answers questions over ingested data only; it never
// talks to the upstream. Results are computed from the historical store,
// so a league must be refreshed before it can be analyzed.
type AnalyticsService struct {
	leagues   league.Repository
	managers  manager.Repository
	records   gameweek.Repository
	players   player.Repository
	transfers transfer.Repository
	logger    *logging.Logger
	loaders   int
}

func NewAnalyticsService(
	leagues league.Repository,
	managers manager.Repository,
	records gameweek.Repository,
	players player.Repository,
	transfers transfer.Repository,
	logger *logging.Logger,
) *AnalyticsService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AnalyticsService{
		leagues:   leagues,
		managers:  managers,
		records:   records,
		players:   players,
		transfers: transfers,
		logger:    logger,
		loaders:   8,
	}
}

// TableRow is one line of the computed league table.
type TableRow struct {
	Rank           int
	ManagerID      int64
	ManagerName    string
	TeamName       string
	TotalPoints    int
	GameweekPoints int
	ChipPlayed     gameweek.Chip
}

// LeagueTable ranks the league's members by total points. Ties are broken
// by the latest gameweek's points, then by manager id for a stable order.
// Managers sharing a rank key share the rank number.
func (s *AnalyticsService) LeagueTable(ctx context.Context, leagueID int64) ([]TableRow, error) {
	ctx, span := startUsecaseSpan(ctx, "AnalyticsService.LeagueTable")
	defer span.End()

	members, err := s.leagueMembers(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	rows := make([]TableRow, 0, len(members))
	var rowsMu sync.Mutex

	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(s.loaders)
	for _, managerID := range members {
		managerID := managerID
		p.Go(func(ctx context.Context) error {
			m, ok, err := s.managers.GetByID(ctx, managerID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: manager %d", ErrManagerNotFound, managerID)
			}

			recs, err := s.records.ListByManager(ctx, managerID, 0, 0)
			if err != nil {
				return err
			}

			row := TableRow{
				ManagerID:   managerID,
				ManagerName: m.Name,
				TeamName:    m.TeamName,
			}
			if n := len(recs); n > 0 {
				latest := recs[n-1]
				row.TotalPoints = latest.TotalPoints
				row.GameweekPoints = latest.Points
				row.ChipPlayed = latest.ChipPlayed
			} else {
				row.TotalPoints = m.OverallPoints
			}

			rowsMu.Lock()
			rows = append(rows, row)
			rowsMu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalPoints != rows[j].TotalPoints {
			return rows[i].TotalPoints > rows[j].TotalPoints
		}
		if rows[i].GameweekPoints != rows[j].GameweekPoints {
			return rows[i].GameweekPoints > rows[j].GameweekPoints
		}
		return rows[i].ManagerID < rows[j].ManagerID
	})
	for i := range rows {
		if i > 0 && rows[i].TotalPoints == rows[i-1].TotalPoints && rows[i].GameweekPoints == rows[i-1].GameweekPoints {
			rows[i].Rank = rows[i-1].Rank
			continue
		}
		rows[i].Rank = i + 1
	}

	return rows, nil
}

// ComparisonSide is one manager's half of a head-to-head comparison,
// aggregated over the compared gameweek range.
type ComparisonSide struct {
	ManagerID   int64
	ManagerName string
	TeamName    string
	// Points is the sum of gameweek points across the range; TotalPoints
	// is the running total at the end of it.
	Points       int
	TotalPoints  int
	TransferCost int
	BenchPoints  int
	// CaptaincyContribution is the extra score the armbands earned across
	// the range, each captain's points times the multiplier above one.
	CaptaincyContribution int
	ChipsPlayed           []gameweek.Chip
	// Differentials are players in this side's latest squad that the
	// other side's latest squad does not own.
	Differentials []player.Player
}

// GameweekDifferential is one gameweek's scoring margin between the two
// compared managers. Margin is A's points minus B's.
type GameweekDifferential struct {
	Gameweek int
	PointsA  int
	PointsB  int
	Margin   int
}

// Comparison is a head-to-head view of two managers over a gameweek range.
type Comparison struct {
	FromGameweek  int
	ToGameweek    int
	A             ComparisonSide
	B             ComparisonSide
	Differentials []GameweekDifferential
	// SquadOverlap is shared picks over the larger squad, in [0, 1],
	// computed from each side's latest squad in the range.
	SquadOverlap float64
}

// HeadToHead compares two managers' scoring over a gameweek range.
// from/to values of zero or less leave that end of the range unbounded;
// passing the same gameweek twice compares a single week. Squad
// differentials and overlap come from each side's latest picks in range.
func (s *AnalyticsService) HeadToHead(ctx context.Context, aID, bID int64, from, to int) (Comparison, error) {
	ctx, span := startUsecaseSpan(ctx, "AnalyticsService.HeadToHead")
	defer span.End()

	if aID <= 0 || bID <= 0 {
		return Comparison{}, fmt.Errorf("%w: manager ids must be greater than zero", ErrInvalidInput)
	}
	if aID == bID {
		return Comparison{}, fmt.Errorf("%w: cannot compare a manager with themselves", ErrInvalidInput)
	}
	if from > 0 && to > 0 && from > to {
		return Comparison{}, fmt.Errorf("%w: gameweek range %d-%d is inverted", ErrInvalidInput, from, to)
	}

	sideA, err := s.comparisonSide(ctx, aID, from, to)
	if err != nil {
		return Comparison{}, err
	}
	sideB, err := s.comparisonSide(ctx, bID, from, to)
	if err != nil {
		return Comparison{}, err
	}

	picksA := pickSet(sideA.squad)
	picksB := pickSet(sideB.squad)
	sideA.side.Differentials, err = s.resolvePlayers(ctx, difference(picksA, picksB))
	if err != nil {
		return Comparison{}, err
	}
	sideB.side.Differentials, err = s.resolvePlayers(ctx, difference(picksB, picksA))
	if err != nil {
		return Comparison{}, err
	}

	return Comparison{
		FromGameweek:  from,
		ToGameweek:    to,
		A:             sideA.side,
		B:             sideB.side,
		Differentials: differentialSeries(sideA.pointsByGw, sideB.pointsByGw),
		SquadOverlap:  overlap(picksA, picksB),
	}, nil
}

type comparisonData struct {
	side       ComparisonSide
	squad      []gameweek.Pick
	pointsByGw map[int]int
}

func (s *AnalyticsService) comparisonSide(ctx context.Context, managerID int64, from, to int) (comparisonData, error) {
	m, ok, err := s.managers.GetByID(ctx, managerID)
	if err != nil {
		return comparisonData{}, err
	}
	if !ok {
		return comparisonData{}, fmt.Errorf("%w: manager %d", ErrManagerNotFound, managerID)
	}

	recs, err := s.records.ListByManager(ctx, managerID, from, to)
	if err != nil {
		return comparisonData{}, err
	}
	if len(recs) == 0 {
		return comparisonData{}, fmt.Errorf("%w: manager %d has no records in gameweeks %d-%d",
			ErrManagerNotFound, managerID, from, to)
	}

	data := comparisonData{
		side: ComparisonSide{
			ManagerID:   managerID,
			ManagerName: m.Name,
			TeamName:    m.TeamName,
		},
		pointsByGw: make(map[int]int, len(recs)),
	}
	for _, rec := range recs {
		data.side.Points += rec.Points
		data.side.TransferCost += rec.TransferCost
		data.side.BenchPoints += rec.BenchPoints
		if rec.ChipPlayed != gameweek.ChipNone {
			data.side.ChipsPlayed = append(data.side.ChipsPlayed, rec.ChipPlayed)
		}
		if captain, ok := rec.Captain(); ok && captain.Multiplier > 1 {
			data.side.CaptaincyContribution += captain.Points * (captain.Multiplier - 1)
		}
		if len(rec.Picks) > 0 {
			data.squad = rec.Picks
		}
		data.pointsByGw[rec.Gameweek] = rec.Points
	}
	data.side.TotalPoints = recs[len(recs)-1].TotalPoints

	return data, nil
}

// differentialSeries lines up both sides' gameweek points; a side without
// a record for a gameweek counts zero there.
func differentialSeries(a, b map[int]int) []GameweekDifferential {
	weeks := make(map[int]struct{}, len(a)+len(b))
	for gw := range a {
		weeks[gw] = struct{}{}
	}
	for gw := range b {
		weeks[gw] = struct{}{}
	}
	ordered := make([]int, 0, len(weeks))
	for gw := range weeks {
		ordered = append(ordered, gw)
	}
	sort.Ints(ordered)

	series := make([]GameweekDifferential, 0, len(ordered))
	for _, gw := range ordered {
		series = append(series, GameweekDifferential{
			Gameweek: gw,
			PointsA:  a[gw],
			PointsB:  b[gw],
			Margin:   a[gw] - b[gw],
		})
	}
	return series
}

func pickSet(picks []gameweek.Pick) map[int64]struct{} {
	set := make(map[int64]struct{}, len(picks))
	for _, p := range picks {
		set[p.PlayerID] = struct{}{}
	}
	return set
}

func difference(a, b map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(a))
	for id := range a {
		if _, shared := b[id]; !shared {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func overlap(a, b map[int64]struct{}) float64 {
	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	if larger == 0 {
		return 0
	}
	shared := 0
	for id := range a {
		if _, ok := b[id]; ok {
			shared++
		}
	}
	return float64(shared) / float64(larger)
}

// resolvePlayers maps player ids to catalog rows. Ids missing from the
// catalog still produce a stub row so the comparison stays complete.
func (s *AnalyticsService) resolvePlayers(ctx context.Context, ids []int64) ([]player.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	known, err := s.players.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]player.Player, len(known))
	for _, p := range known {
		byID[p.ID] = p
	}

	out := make([]player.Player, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, player.Player{ID: id, Name: fmt.Sprintf("player %d", id)})
	}
	return out, nil
}

// TransferTrend is one player's transfer traffic inside a league.
type TransferTrend struct {
	Player       player.Player
	In           int
	Out          int
	FromGameweek int
	ToGameweek   int
}

// TransferTrends counts, per player, how often the league's members moved
// them in or out across a gameweek range. from/to values of zero or less
// leave that end unbounded, so (0, 0) covers the whole season. Rows are
// ordered by total traffic, ties by player id.
func (s *AnalyticsService) TransferTrends(ctx context.Context, leagueID int64, from, to int) ([]TransferTrend, error) {
	ctx, span := startUsecaseSpan(ctx, "AnalyticsService.TransferTrends")
	defer span.End()

	if from > 0 && to > 0 && from > to {
		return nil, fmt.Errorf("%w: gameweek range %d-%d is inverted", ErrInvalidInput, from, to)
	}
	members, err := s.leagueMembers(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	type counts struct{ in, out int }
	tally := make(map[int64]*counts)
	var tallyMu sync.Mutex

	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(s.loaders)
	for _, managerID := range members {
		managerID := managerID
		p.Go(func(ctx context.Context) error {
			items, err := s.transfers.ListByManager(ctx, managerID)
			if err != nil {
				return err
			}
			tallyMu.Lock()
			for _, t := range items {
				if from > 0 && t.Gameweek < from {
					continue
				}
				if to > 0 && t.Gameweek > to {
					continue
				}
				in := tally[t.PlayerInID]
				if in == nil {
					in = &counts{}
					tally[t.PlayerInID] = in
				}
				in.in++
				out := tally[t.PlayerOutID]
				if out == nil {
					out = &counts{}
					tally[t.PlayerOutID] = out
				}
				out.out++
			}
			tallyMu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(tally))
	for id := range tally {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	resolved, err := s.resolvePlayers(ctx, ids)
	if err != nil {
		return nil, err
	}

	trends := make([]TransferTrend, 0, len(resolved))
	for _, pl := range resolved {
		c := tally[pl.ID]
		trends = append(trends, TransferTrend{Player: pl, In: c.in, Out: c.out, FromGameweek: from, ToGameweek: to})
	}
	sort.Slice(trends, func(i, j int) bool {
		ti, tj := trends[i].In+trends[i].Out, trends[j].In+trends[j].Out
		if ti != tj {
			return ti > tj
		}
		return trends[i].Player.ID < trends[j].Player.ID
	})

	return trends, nil
}

// ChipReport is one manager's chip usage for the season.
type ChipReport struct {
	ManagerID   int64
	ManagerName string
	// Played maps each used chip to the gameweek it was played in.
	Played map[gameweek.Chip]int
	// Remaining lists the chips not played yet, in reporting order.
	Remaining []gameweek.Chip
}

// ChipUsage reports, for every league member, which chips were played in
// which gameweek and which are still in hand.
func (s *AnalyticsService) ChipUsage(ctx context.Context, leagueID int64) ([]ChipReport, error) {
	ctx, span := startUsecaseSpan(ctx, "AnalyticsService.ChipUsage")
	defer span.End()

	members, err := s.leagueMembers(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	reports := make([]ChipReport, 0, len(members))
	for _, managerID := range members {
		m, ok, err := s.managers.GetByID(ctx, managerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: manager %d", ErrManagerNotFound, managerID)
		}
		recs, err := s.records.ListByManager(ctx, managerID, 0, 0)
		if err != nil {
			return nil, err
		}

		played := make(map[gameweek.Chip]int)
		for _, rec := range recs {
			if rec.ChipPlayed != gameweek.ChipNone {
				played[rec.ChipPlayed] = rec.Gameweek
			}
		}
		var remaining []gameweek.Chip
		for _, chip := range gameweek.Chips() {
			if _, used := played[chip]; !used {
				remaining = append(remaining, chip)
			}
		}

		reports = append(reports, ChipReport{
			ManagerID:   managerID,
			ManagerName: m.Name,
			Played:      played,
			Remaining:   remaining,
		})
	}

	return reports, nil
}

// GameweekKing is a manager who scored a gameweek's best total in the
// league.
type GameweekKing struct {
	Gameweek    int
	ManagerID   int64
	ManagerName string
	TeamName    string
	Points      int
}

// KingOfGameweek finds the league's top scorer(s) for every gameweek in
// the range. from/to values of zero or less leave that end unbounded;
// passing the same gameweek twice crowns a single week. Joint leaders are
// all returned; rows are ordered by gameweek, then manager id.
func (s *AnalyticsService) KingOfGameweek(ctx context.Context, leagueID int64, from, to int) ([]GameweekKing, error) {
	ctx, span := startUsecaseSpan(ctx, "AnalyticsService.KingOfGameweek")
	defer span.End()

	if from > 0 && to > 0 && from > to {
		return nil, fmt.Errorf("%w: gameweek range %d-%d is inverted", ErrInvalidInput, from, to)
	}
	members, err := s.leagueMembers(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	type crown struct {
		best    int
		leaders []int64
	}
	byGw := make(map[int]*crown)
	for _, managerID := range members {
		recs, err := s.records.ListByManager(ctx, managerID, from, to)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			c := byGw[rec.Gameweek]
			if c == nil {
				c = &crown{best: -1}
				byGw[rec.Gameweek] = c
			}
			if rec.Points < c.best {
				continue
			}
			if rec.Points > c.best {
				c.best = rec.Points
				c.leaders = c.leaders[:0]
			}
			c.leaders = append(c.leaders, managerID)
		}
	}

	names := make(map[int64]manager.Manager)
	var kings []GameweekKing
	for gw, c := range byGw {
		for _, managerID := range c.leaders {
			m, cached := names[managerID]
			if !cached {
				var found bool
				m, found, err = s.managers.GetByID(ctx, managerID)
				if err != nil {
					return nil, err
				}
				if !found {
					return nil, fmt.Errorf("%w: manager %d", ErrManagerNotFound, managerID)
				}
				names[managerID] = m
			}
			kings = append(kings, GameweekKing{
				Gameweek:    gw,
				ManagerID:   managerID,
				ManagerName: m.Name,
				TeamName:    m.TeamName,
				Points:      c.best,
			})
		}
	}
	sort.Slice(kings, func(i, j int) bool {
		if kings[i].Gameweek != kings[j].Gameweek {
			return kings[i].Gameweek < kings[j].Gameweek
		}
		return kings[i].ManagerID < kings[j].ManagerID
	})

	return kings, nil
}

// LeagueSummary is the league header plus aggregate scoring stats.
type LeagueSummary struct {
	League        league.League
	Members       int
	AveragePoints float64
	TopPoints     int
	LatestGW      int
}

// Summary reports the league's headline numbers from the latest ingested
// records.
func (s *AnalyticsService) Summary(ctx context.Context, leagueID int64) (LeagueSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "AnalyticsService.Summary")
	defer span.End()

	l, ok, err := s.leagues.GetByID(ctx, leagueID)
	if err != nil {
		return LeagueSummary{}, err
	}
	if !ok {
		return LeagueSummary{}, fmt.Errorf("%w: league %d", ErrLeagueNotFound, leagueID)
	}
	members, err := s.leagues.ListMembers(ctx, leagueID)
	if err != nil {
		return LeagueSummary{}, err
	}

	summary := LeagueSummary{League: l, Members: len(members)}
	totalSum := 0
	counted := 0
	for _, managerID := range members {
		recs, err := s.records.ListByManager(ctx, managerID, 0, 0)
		if err != nil {
			return LeagueSummary{}, err
		}
		if len(recs) == 0 {
			continue
		}
		latest := recs[len(recs)-1]
		totalSum += latest.TotalPoints
		counted++
		if latest.TotalPoints > summary.TopPoints {
			summary.TopPoints = latest.TotalPoints
		}
		if latest.Gameweek > summary.LatestGW {
			summary.LatestGW = latest.Gameweek
		}
	}
	if counted > 0 {
		summary.AveragePoints = float64(totalSum) / float64(counted)
	}

	return summary, nil
}

func (s *AnalyticsService) leagueMembers(ctx context.Context, leagueID int64) ([]int64, error) {
	if leagueID <= 0 {
		return nil, fmt.Errorf("%w: league id must be greater than zero", ErrInvalidInput)
	}
	_, ok, err := s.leagues.GetByID(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: league %d", ErrLeagueNotFound, leagueID)
	}
	members, err := s.leagues.ListMembers(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	return members, nil
}
