package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fpl-dashboard/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       logging.Level

	// DBURL empty means the in-memory repositories are used.
	DBURL string

	FPLBaseURL        string
	FPLTimeout        time.Duration
	FPLMaxRetries     int
	FPLRetryBaseDelay time.Duration
	FPLMaxConcurrent  int
	FPLMaxPerSecond   int

	FPLCircuitEnabled        bool
	FPLCircuitFailureCount   int
	FPLCircuitOpenTimeout    time.Duration
	FPLCircuitHalfOpenMaxReq int

	CatalogTTL     time.Duration
	LeagueTTL      time.Duration
	LiveTTL        time.Duration
	NegativeTTL    time.Duration
	StandingsPage  int
	RefreshWorkers int
	MaxPages       int
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("SERVICE_NAME", "fpl-dashboard"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DBURL:          strings.TrimSpace(getEnv("DATABASE_URL", "")),
		FPLBaseURL:     strings.TrimRight(getEnv("FPL_BASE_URL", "https://fantasy.premierleague.com/api"), "/"),
	}

	cfg.FPLTimeout, err = getEnvAsDuration("FPL_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.FPLMaxRetries, err = getEnvAsInt("FPL_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse FPL_MAX_RETRIES: %w", err)
	}
	cfg.FPLRetryBaseDelay, err = getEnvAsDuration("FPL_RETRY_BASE_DELAY", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.FPLMaxConcurrent, err = getEnvAsInt("FPL_MAX_CONCURRENT", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse FPL_MAX_CONCURRENT: %w", err)
	}
	if cfg.FPLMaxConcurrent <= 0 {
		return Config{}, fmt.Errorf("FPL_MAX_CONCURRENT must be > 0")
	}
	cfg.FPLMaxPerSecond, err = getEnvAsInt("FPL_MAX_PER_SECOND", 20)
	if err != nil {
		return Config{}, fmt.Errorf("parse FPL_MAX_PER_SECOND: %w", err)
	}
	if cfg.FPLMaxPerSecond <= 0 {
		return Config{}, fmt.Errorf("FPL_MAX_PER_SECOND must be > 0")
	}

	cfg.FPLCircuitEnabled, err = strconv.ParseBool(getEnv("FPL_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FPL_CIRCUIT_ENABLED: %w", err)
	}
	cfg.FPLCircuitFailureCount, err = getEnvAsInt("FPL_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse FPL_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	cfg.FPLCircuitOpenTimeout, err = getEnvAsDuration("FPL_CIRCUIT_OPEN_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.FPLCircuitHalfOpenMaxReq, err = getEnvAsInt("FPL_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse FPL_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	cfg.CatalogTTL, err = getEnvAsDuration("CACHE_CATALOG_TTL", 6*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.LeagueTTL, err = getEnvAsDuration("CACHE_LEAGUE_TTL", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.LiveTTL, err = getEnvAsDuration("CACHE_LIVE_TTL", 60*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.NegativeTTL, err = getEnvAsDuration("CACHE_NEGATIVE_TTL", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg.StandingsPage, err = getEnvAsInt("STANDINGS_PAGE_SIZE", 50)
	if err != nil {
		return Config{}, fmt.Errorf("parse STANDINGS_PAGE_SIZE: %w", err)
	}
	cfg.RefreshWorkers, err = getEnvAsInt("REFRESH_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_WORKERS: %w", err)
	}
	cfg.MaxPages, err = getEnvAsInt("STANDINGS_MAX_PAGES", 40)
	if err != nil {
		return Config{}, fmt.Errorf("parse STANDINGS_MAX_PAGES: %w", err)
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case EnvDev, EnvStage, EnvProd:
		return v, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}

	return out, nil
}
