package usecase

import (
	"time"

	"fpl-dashboard/internal/platform/cache"
)

// FreshnessPolicies groups the cache policies per data class. Catalog and
// league data move slowly, live data moves during matches, finalized
// history never changes so it never expires.
type FreshnessPolicies struct {
	Catalog   cache.Policy
	League    cache.Policy
	Live      cache.Policy
	Finalized cache.Policy
}

func DefaultFreshnessPolicies() FreshnessPolicies {
	return FreshnessPolicies{
		Catalog:   cache.Policy{TTL: 6 * time.Hour, NegativeTTL: 30 * time.Second},
		League:    cache.Policy{TTL: 15 * time.Minute, NegativeTTL: 30 * time.Second},
		Live:      cache.Policy{TTL: 60 * time.Second, NegativeTTL: 15 * time.Second},
		Finalized: cache.Policy{TTL: 0, NegativeTTL: 30 * time.Second},
	}
}

// FinalityPolicy decides whether a gameweek's scoring is settled given the
// upstream's current gameweek. Injectable so tests and bonus-point
// correction windows can tighten or loosen it.
type FinalityPolicy func(gw, currentGameweek int) bool

// DefaultFinalityPolicy treats every gameweek before the current one as
// settled.
func DefaultFinalityPolicy(gw, currentGameweek int) bool {
	return currentGameweek > 0 && gw < currentGameweek
}
