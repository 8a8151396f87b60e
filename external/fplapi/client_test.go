package fplapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fpl-dashboard/internal/platform/resilience"
	"fpl-dashboard/internal/usecase"
)

func newTestClient(t *testing.T, handler http.Handler, maxRetries int) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:        server.URL,
		Timeout:        2 * time.Second,
		MaxRetries:     maxRetries,
		RetryBaseDelay: time.Millisecond,
		Limiter:        resilience.NewLimiter(4, 1000, time.Second),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})
	return client, server
}

func TestClient_FetchManagerSummary_DecodesEntry(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/entry/42/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"id": 42,
			"player_first_name": "Ada",
			"player_last_name": "Lovelace",
			"name": "Analytical FC",
			"player_region_name": "England",
			"summary_overall_points": 1201,
			"summary_overall_rank": 53211,
			"current_event": 12
		}`))
	}), 0)

	got, err := client.FetchManagerSummary(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchManagerSummary: %v", err)
	}
	if got.ManagerName != "Ada Lovelace" || got.TeamName != "Analytical FC" {
		t.Fatalf("unexpected names: %+v", got)
	}
	if got.OverallPoints != 1201 || got.CurrentGameweek != 12 {
		t.Fatalf("unexpected summary numbers: %+v", got)
	}
}

func TestClient_RetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id": 7, "name": "Seventh Heaven"}`))
	}), 3)

	got, err := client.FetchManagerSummary(context.Background(), 7)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got.EntryID != 7 {
		t.Fatalf("unexpected entry id %d", got.EntryID)
	}
	if n := hits.Load(); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
}

func TestClient_DoesNotRetryNotFound(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}), 5)

	_, err := client.FetchManagerSummary(context.Background(), 999999)
	if !errors.Is(err, usecase.ErrUpstreamNotFound) {
		t.Fatalf("expected ErrUpstreamNotFound, got %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("expected a single attempt for 404, got %d", n)
	}
}

func TestClient_ExhaustedRetriesReportUnavailable(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}), 2)

	_, err := client.FetchManagerSummary(context.Background(), 7)
	if !errors.Is(err, usecase.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if n := hits.Load(); n != 3 {
		t.Fatalf("expected 3 attempts (1 + 2 retries), got %d", n)
	}
}

func TestClient_MalformedPayload(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current": [{"event": "not-a-number"}]}`))
	}), 0)

	_, err := client.FetchManagerHistory(context.Background(), 7)
	if !errors.Is(err, usecase.ErrUpstreamMalformed) {
		t.Fatalf("expected ErrUpstreamMalformed, got %v", err)
	}
}

func TestClient_FetchLeagueStandingsPage_MapsEntries(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("page_standings"); got != "2" {
			t.Errorf("unexpected page_standings %q", got)
		}
		_, _ = w.Write([]byte(`{
			"league": {"id": 101, "name": "Office League", "league_type": "x", "scoring": "c", "start_event": 1, "code_privacy": "p"},
			"standings": {
				"page": 2,
				"has_next": false,
				"results": [
					{"entry": 11, "player_name": "Grace Hopper", "entry_name": "Bug Hunters", "rank": 1, "total": 988, "event_total": 61},
					{"entry": 12, "player_name": "Alan Turing", "entry_name": "Enigma XI", "rank": 2, "total": 970, "event_total": 55}
				]
			}
		}`))
	}), 0)

	got, err := client.FetchLeagueStandingsPage(context.Background(), 101, 2)
	if err != nil {
		t.Fatalf("FetchLeagueStandingsPage: %v", err)
	}
	if got.LeagueID != 101 || got.Page != 2 || got.HasNext {
		t.Fatalf("unexpected page meta: %+v", got)
	}
	if len(got.Entries) != 2 || got.Entries[0].EntryID != 11 || got.Entries[1].TotalPoints != 970 {
		t.Fatalf("unexpected entries: %+v", got.Entries)
	}
}

func TestClient_FetchPlayerCatalog_ResolvesTeamsAndPositions(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"events": [
				{"id": 1, "is_current": false, "finished": true},
				{"id": 2, "is_current": true, "finished": false}
			],
			"teams": [{"id": 3, "name": "Arsenal", "short_name": "ARS"}],
			"elements": [
				{"id": 5, "web_name": "Saka", "team": 3, "element_type": 3, "now_cost": 95, "selected_by_percent": "44.3", "event_points": 9, "total_points": 102}
			]
		}`))
	}), 0)

	got, err := client.FetchPlayerCatalog(context.Background())
	if err != nil {
		t.Fatalf("FetchPlayerCatalog: %v", err)
	}
	if got.CurrentGameweek != 2 || got.FinishedGameweek != 1 {
		t.Fatalf("unexpected gameweek state: %+v", got)
	}
	if len(got.Players) != 1 {
		t.Fatalf("expected one player, got %d", len(got.Players))
	}
	p := got.Players[0]
	if p.Team != "Arsenal" || p.Position != "MID" || p.OwnershipPct != 44.3 {
		t.Fatalf("unexpected player mapping: %+v", p)
	}
}
