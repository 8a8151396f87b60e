package fplapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"fpl-dashboard/internal/platform/logging"
	"fpl-dashboard/internal/platform/metrics"
	"fpl-dashboard/internal/platform/resilience"
	"fpl-dashboard/internal/usecase"
)

const defaultBaseURL = "https://fantasy.premierleague.com/api"

// ResourceType identifies the upstream datasets the client can fetch.
type ResourceType string

const (
	ResourceLeague              ResourceType = "league"
	ResourceManagerSummary      ResourceType = "manager-summary"
	ResourceManagerHistory      ResourceType = "manager-history"
	ResourceManagerPicks        ResourceType = "manager-picks"
	ResourceManagerTransfers    ResourceType = "manager-transfers"
	ResourcePlayerCatalog       ResourceType = "player-catalog"
	ResourceLeagueStandingsPage ResourceType = "league-standings-page"
)

var errFPLTransient = crerr.New("fpl transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	Limiter        *resilience.Limiter
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches FPL data under a shared rate ceiling, retrying transient
// failures with exponential backoff. Definitive client errors (not found)
// surface immediately without retry.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	retryBaseDelay time.Duration
	limiter        *resilience.Limiter
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = resilience.NewLimiter(4, 20, time.Second)
	}

	retryBaseDelay := cfg.RetryBaseDelay
	if retryBaseDelay <= 0 {
		retryBaseDelay = 500 * time.Millisecond
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		retryBaseDelay: retryBaseDelay,
		limiter:        limiter,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) FetchPlayerCatalog(ctx context.Context) (usecase.PlayerCatalog, error) {
	var env bootstrapEnvelope
	if err := c.doJSON(ctx, ResourcePlayerCatalog, "/bootstrap-static/", &env); err != nil {
		return usecase.PlayerCatalog{}, err
	}
	if len(env.Events) == 0 || len(env.Elements) == 0 {
		return usecase.PlayerCatalog{}, fmt.Errorf("%w: bootstrap payload has no events or elements", usecase.ErrUpstreamMalformed)
	}

	out := usecase.PlayerCatalog{
		Players: make([]usecase.CatalogPlayer, 0, len(env.Elements)),
	}
	for _, event := range env.Events {
		if event.IsCurrent {
			out.CurrentGameweek = event.ID
		}
		if event.Finished && event.ID > out.FinishedGameweek {
			out.FinishedGameweek = event.ID
		}
	}

	teamNames := make(map[int64]string, len(env.Teams))
	for _, team := range env.Teams {
		teamNames[team.ID] = team.Name
	}

	for _, element := range env.Elements {
		if element.ID <= 0 {
			continue
		}
		ownership, _ := strconv.ParseFloat(strings.TrimSpace(element.SelectedBy), 64)
		out.Players = append(out.Players, usecase.CatalogPlayer{
			ID:           element.ID,
			Name:         strings.TrimSpace(element.WebName),
			Team:         teamNames[element.Team],
			Position:     positionName(element.ElementType),
			Price:        element.NowCost,
			OwnershipPct: ownership,
			EventPoints:  element.EventPoints,
			TotalPoints:  element.TotalPoints,
		})
	}

	return out, nil
}

func (c *Client) FetchLeagueStandingsPage(ctx context.Context, leagueID int64, page int) (usecase.LeagueStandingsPage, error) {
	if leagueID <= 0 {
		return usecase.LeagueStandingsPage{}, fmt.Errorf("league id must be greater than zero")
	}
	if page <= 0 {
		page = 1
	}

	path := fmt.Sprintf("/leagues-classic/%d/standings/?page_standings=%d", leagueID, page)
	var env standingsEnvelope
	if err := c.doJSON(ctx, ResourceLeagueStandingsPage, path, &env); err != nil {
		return usecase.LeagueStandingsPage{}, err
	}
	if env.League.ID <= 0 {
		return usecase.LeagueStandingsPage{}, fmt.Errorf("%w: standings payload missing league", usecase.ErrUpstreamMalformed)
	}

	out := usecase.LeagueStandingsPage{
		LeagueID:      env.League.ID,
		Name:          strings.TrimSpace(env.League.Name),
		LeagueType:    env.League.LeagueType,
		Scoring:       env.League.Scoring,
		StartGameweek: env.League.StartEvent,
		Privacy:       env.League.CodePrivacy,
		Page:          env.Standings.Page,
		HasNext:       env.Standings.HasNext,
		Entries:       make([]usecase.StandingsEntry, 0, len(env.Standings.Results)),
	}
	if out.Page <= 0 {
		out.Page = page
	}
	for _, row := range env.Standings.Results {
		if row.Entry <= 0 {
			continue
		}
		out.Entries = append(out.Entries, usecase.StandingsEntry{
			EntryID:        row.Entry,
			ManagerName:    strings.TrimSpace(row.PlayerName),
			TeamName:       strings.TrimSpace(row.EntryName),
			Rank:           row.Rank,
			TotalPoints:    row.Total,
			GameweekPoints: row.EventTotal,
		})
	}

	return out, nil
}

func (c *Client) FetchManagerSummary(ctx context.Context, entryID int64) (usecase.ManagerSummary, error) {
	if entryID <= 0 {
		return usecase.ManagerSummary{}, fmt.Errorf("entry id must be greater than zero")
	}

	var env entryEnvelope
	if err := c.doJSON(ctx, ResourceManagerSummary, fmt.Sprintf("/entry/%d/", entryID), &env); err != nil {
		return usecase.ManagerSummary{}, err
	}
	if env.ID <= 0 {
		return usecase.ManagerSummary{}, fmt.Errorf("%w: entry payload missing id", usecase.ErrUpstreamMalformed)
	}

	name := strings.TrimSpace(env.PlayerFirstName + " " + env.PlayerLastName)
	return usecase.ManagerSummary{
		EntryID:         env.ID,
		ManagerName:     name,
		TeamName:        strings.TrimSpace(env.Name),
		Region:          strings.TrimSpace(env.PlayerRegionName),
		OverallPoints:   env.SummaryOverallPoints,
		OverallRank:     env.SummaryOverallRank,
		CurrentGameweek: env.CurrentEvent,
	}, nil
}

func (c *Client) FetchManagerHistory(ctx context.Context, entryID int64) (usecase.ManagerHistory, error) {
	if entryID <= 0 {
		return usecase.ManagerHistory{}, fmt.Errorf("entry id must be greater than zero")
	}

	var env historyEnvelope
	if err := c.doJSON(ctx, ResourceManagerHistory, fmt.Sprintf("/entry/%d/history/", entryID), &env); err != nil {
		return usecase.ManagerHistory{}, err
	}

	out := usecase.ManagerHistory{
		Rows:  make([]usecase.ManagerHistoryRow, 0, len(env.Current)),
		Chips: make([]usecase.ChipPlay, 0, len(env.Chips)),
	}
	for _, row := range env.Current {
		if row.Event <= 0 {
			return usecase.ManagerHistory{}, fmt.Errorf("%w: history row missing event number", usecase.ErrUpstreamMalformed)
		}
		out.Rows = append(out.Rows, usecase.ManagerHistoryRow{
			Gameweek:     row.Event,
			Points:       row.Points,
			TotalPoints:  row.TotalPoints,
			OverallRank:  row.OverallRank,
			Bank:         row.Bank,
			SquadValue:   row.Value,
			Transfers:    row.EventTransfers,
			TransferCost: row.EventTransfersCost,
			BenchPoints:  row.PointsOnBench,
		})
	}
	for _, chip := range env.Chips {
		out.Chips = append(out.Chips, usecase.ChipPlay{
			Name:     strings.TrimSpace(chip.Name),
			Gameweek: chip.Event,
		})
	}

	return out, nil
}

func (c *Client) FetchManagerPicks(ctx context.Context, entryID int64, gameweek int) (usecase.ManagerPicks, error) {
	if entryID <= 0 {
		return usecase.ManagerPicks{}, fmt.Errorf("entry id must be greater than zero")
	}
	if gameweek <= 0 {
		return usecase.ManagerPicks{}, fmt.Errorf("gameweek must be greater than zero")
	}

	var env picksEnvelope
	path := fmt.Sprintf("/entry/%d/event/%d/picks/", entryID, gameweek)
	if err := c.doJSON(ctx, ResourceManagerPicks, path, &env); err != nil {
		return usecase.ManagerPicks{}, err
	}
	if len(env.Picks) == 0 {
		return usecase.ManagerPicks{}, fmt.Errorf("%w: picks payload has no picks", usecase.ErrUpstreamMalformed)
	}

	out := usecase.ManagerPicks{
		EntryID:    entryID,
		Gameweek:   gameweek,
		ActiveChip: strings.TrimSpace(env.ActiveChip),
		Picks:      make([]usecase.PickEntry, 0, len(env.Picks)),
		AutoSubs:   make([]usecase.AutoSubEntry, 0, len(env.AutomaticSubs)),
	}
	if env.EntryHistory.Event > 0 {
		out.Gameweek = env.EntryHistory.Event
	}
	for _, pick := range env.Picks {
		if pick.Element <= 0 {
			return usecase.ManagerPicks{}, fmt.Errorf("%w: pick missing element id", usecase.ErrUpstreamMalformed)
		}
		out.Picks = append(out.Picks, usecase.PickEntry{
			PlayerID:      pick.Element,
			Position:      pick.Position,
			Multiplier:    pick.Multiplier,
			IsCaptain:     pick.IsCaptain,
			IsViceCaptain: pick.IsViceCaptain,
		})
	}
	for _, sub := range env.AutomaticSubs {
		if sub.ElementIn <= 0 || sub.ElementOut <= 0 {
			continue
		}
		out.AutoSubs = append(out.AutoSubs, usecase.AutoSubEntry{
			PlayerInID:  sub.ElementIn,
			PlayerOutID: sub.ElementOut,
		})
	}

	return out, nil
}

func (c *Client) FetchManagerTransfers(ctx context.Context, entryID int64) ([]usecase.ManagerTransfer, error) {
	if entryID <= 0 {
		return nil, fmt.Errorf("entry id must be greater than zero")
	}

	var env []transferEnvelope
	if err := c.doJSON(ctx, ResourceManagerTransfers, fmt.Sprintf("/entry/%d/transfers/", entryID), &env); err != nil {
		return nil, err
	}

	out := make([]usecase.ManagerTransfer, 0, len(env))
	for _, row := range env {
		if row.ElementIn <= 0 || row.ElementOut <= 0 || row.Event <= 0 {
			continue
		}
		out = append(out, usecase.ManagerTransfer{
			EntryID:     entryID,
			Gameweek:    row.Event,
			PlayerInID:  row.ElementIn,
			PlayerOutID: row.ElementOut,
		})
	}

	return out, nil
}

func (c *Client) doJSON(ctx context.Context, resource ResourceType, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "fpl circuit breaker rejected request", "state", c.breaker.State(), "resource", string(resource))
			return fmt.Errorf("%w: circuit open", usecase.ErrUpstreamUnavailable)
		}
	}

	raw, err := c.executeRequest(ctx, resource, c.baseURL+path)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errFPLTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		if crerr.Is(err, errFPLTransient) {
			return fmt.Errorf("%w: %v", usecase.ErrUpstreamUnavailable, err)
		}
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		metrics.UpstreamRequests.WithLabelValues(string(resource), "malformed").Inc()
		return fmt.Errorf("%w: decode %s payload: %v", usecase.ErrUpstreamMalformed, resource, err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, resource ResourceType, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, err := c.attemptRequest(ctx, fullURL)
		if err == nil {
			metrics.UpstreamRequests.WithLabelValues(string(resource), "ok").Inc()
			return raw, nil
		}
		lastErr = err

		if !crerr.Is(err, errFPLTransient) || ctx.Err() != nil {
			metrics.UpstreamRequests.WithLabelValues(string(resource), "error").Inc()
			return nil, err
		}
		metrics.UpstreamRequests.WithLabelValues(string(resource), "retry").Inc()

		if attempt == c.maxRetries {
			break
		}
		backoff := c.retryBaseDelay << uint(attempt)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = crerr.Wrap(errFPLTransient, "request failed")
	}
	c.logger.WarnContext(ctx, "fpl request failed", "url", fullURL, "resource", string(resource), "error", lastErr)
	return nil, lastErr
}

func (c *Client) attemptRequest(ctx context.Context, fullURL string) ([]byte, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.limiter.Release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, crerr.Wrapf(errFPLTransient, "send request: %v", err)
	}

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, crerr.Wrapf(errFPLTransient, "read response body: %v", readErr)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: status=404", usecase.ErrUpstreamNotFound)
	case isRetryableStatus(resp.StatusCode):
		return nil, crerr.Wrapf(errFPLTransient, "status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
	default:
		return nil, fmt.Errorf("fpl status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
	}
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func abbreviateBody(raw []byte) string {
	const maxLen = 200
	body := strings.TrimSpace(string(raw))
	if len(body) > maxLen {
		return body[:maxLen] + "..."
	}
	return body
}

func positionName(elementType int) string {
	switch elementType {
	case 1:
		return "GKP"
	case 2:
		return "DEF"
	case 3:
		return "MID"
	case 4:
		return "FWD"
	default:
		return "UNK"
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
