// Package app wires configuration, storage, the upstream client and the
// services into a runnable unit.
package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"fpl-dashboard/external/fplapi"
	"fpl-dashboard/internal/config"
	"fpl-dashboard/internal/domain/gameweek"
	"fpl-dashboard/internal/domain/league"
	"fpl-dashboard/internal/domain/manager"
	"fpl-dashboard/internal/domain/player"
	"fpl-dashboard/internal/domain/transfer"
	"fpl-dashboard/internal/infrastructure/repository/memory"
	"fpl-dashboard/internal/infrastructure/repository/postgres"
	"fpl-dashboard/internal/platform/cache"
	"fpl-dashboard/internal/platform/logging"
	"fpl-dashboard/internal/platform/resilience"
	"fpl-dashboard/internal/usecase"
)

// App is the assembled service.
type App struct {
	Config    config.Config
	Logger    *logging.Logger
	Ingestion *usecase.IngestionService
	Analytics *usecase.AnalyticsService

	db *sqlx.DB
}

type repositories struct {
	leagues   league.Repository
	managers  manager.Repository
	records   gameweek.Repository
	players   player.Repository
	transfers transfer.Repository
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewJSON(cfg.LogLevel)
	}

	a := &App{Config: cfg, Logger: logger}

	repos, err := a.buildRepositories(cfg, logger)
	if err != nil {
		return nil, err
	}

	upstream := fplapi.NewClient(fplapi.ClientConfig{
		HTTPClient:     &http.Client{Timeout: cfg.FPLTimeout},
		BaseURL:        cfg.FPLBaseURL,
		Timeout:        cfg.FPLTimeout,
		MaxRetries:     cfg.FPLMaxRetries,
		RetryBaseDelay: cfg.FPLRetryBaseDelay,
		Limiter:        resilience.NewLimiter(cfg.FPLMaxConcurrent, cfg.FPLMaxPerSecond, time.Second),
		Logger:         logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FPLCircuitEnabled,
			FailureThreshold: cfg.FPLCircuitFailureCount,
			OpenTimeout:      cfg.FPLCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FPLCircuitHalfOpenMaxReq,
		},
	})

	freshness := usecase.FreshnessPolicies{
		Catalog:   cache.Policy{TTL: cfg.CatalogTTL, NegativeTTL: cfg.NegativeTTL},
		League:    cache.Policy{TTL: cfg.LeagueTTL, NegativeTTL: cfg.NegativeTTL},
		Live:      cache.Policy{TTL: cfg.LiveTTL, NegativeTTL: cfg.NegativeTTL},
		Finalized: cache.Policy{TTL: 0, NegativeTTL: cfg.NegativeTTL},
	}

	a.Ingestion = usecase.NewIngestionService(usecase.IngestionConfig{
		Upstream:  upstream,
		Leagues:   repos.leagues,
		Managers:  repos.managers,
		Records:   repos.records,
		Players:   repos.players,
		Transfers: repos.transfers,
		Cache:     cache.NewStore(),
		Logger:    logger,
		Freshness: freshness,
		PageSize:  cfg.StandingsPage,
		MaxPages:  cfg.MaxPages,
		Workers:   cfg.RefreshWorkers,
	})
	a.Analytics = usecase.NewAnalyticsService(
		repos.leagues,
		repos.managers,
		repos.records,
		repos.players,
		repos.transfers,
		logger,
	)

	return a, nil
}

func (a *App) buildRepositories(cfg config.Config, logger *logging.Logger) (repositories, error) {
	if cfg.DBURL == "" {
		logger.Info("no database configured, using in-memory storage")
		return repositories{
			leagues:   memory.NewLeagueRepository(),
			managers:  memory.NewManagerRepository(),
			records:   memory.NewGameweekRepository(),
			players:   memory.NewPlayerRepository(),
			transfers: memory.NewTransferRepository(),
		}, nil
	}

	db, err := otelsqlx.Connect("postgres", cfg.DBURL,
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
	)
	if err != nil {
		return repositories{}, fmt.Errorf("connect database: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	a.db = db

	return repositories{
		leagues:   postgres.NewLeagueRepository(db),
		managers:  postgres.NewManagerRepository(db),
		records:   postgres.NewGameweekRepository(db),
		players:   postgres.NewPlayerRepository(db),
		transfers: postgres.NewTransferRepository(db),
	}, nil
}

func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
