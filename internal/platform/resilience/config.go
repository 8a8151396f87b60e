package resilience

import "time"

// CircuitBreakerConfig tunes the breaker guarding the upstream API. FPL
// rate-limit episodes tend to clear in tens of seconds, so the defaults
// hold the circuit open longer than a generic service breaker would and
// probe with a single request.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 6,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxReq:   1,
	}
}

// NormalizeCircuitBreakerConfig fills unset fields from the defaults so a
// zero-value config is still usable.
func NormalizeCircuitBreakerConfig(cfg CircuitBreakerConfig) CircuitBreakerConfig {
	defaults := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}
	if cfg.HalfOpenMaxReq < 1 {
		cfg.HalfOpenMaxReq = defaults.HalfOpenMaxReq
	}
	return cfg
}
