package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fpl-dashboard/internal/platform/metrics"
	"fpl-dashboard/internal/platform/resilience"
)

// ErrServedStale wraps a loader failure when an expired entry was still
// available; callers get the stale value alongside this error so they can
// degrade gracefully instead of failing the whole request.
var ErrServedStale = errors.New("served stale cache entry")

// Policy is the freshness class for one data kind. TTL <= 0 means the
// entry never expires (finalized history). NegativeTTL > 0 caches a loader
// failure for a short cooldown so a failing upstream is not hammered.
type Policy struct {
	TTL         time.Duration
	NegativeTTL time.Duration
}

type entry struct {
	value     any
	storedAt  time.Time
	expiresAt time.Time
}

type negativeEntry struct {
	err       error
	expiresAt time.Time
}

func fresh(expiresAt, now time.Time) bool {
	return expiresAt.IsZero() || expiresAt.After(now)
}

// Store is an in-process TTL cache with single-flight loading. Expired
// entries are kept until overwritten so a loader failure can fall back to
// the last good value; eviction is lazy, there is no background sweep.
type Store struct {
	mu        sync.RWMutex
	entries   map[string]entry
	negatives map[string]negativeEntry
	flight    resilience.SingleFlight
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		entries:   make(map[string]entry),
		negatives: make(map[string]negativeEntry),
		now:       time.Now,
	}
}

// Get returns the value for key if a fresh entry exists.
func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !fresh(e.expiresAt, s.now()) {
		return nil, false
	}

	return e.value, true
}

// Delete removes the key; the forced-refresh path invalidates before
// loading again.
func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	delete(s.negatives, key)
	s.mu.Unlock()
}

// Age reports how long ago the key's value was stored, counting stale
// entries too, so callers can attach a staleness indicator.
func (s *Store) Age(_ context.Context, key string) (time.Duration, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return 0, false
	}
	return s.now().Sub(e.storedAt), true
}

// GetOrLoad returns the cached value for key or runs loader under
// single-flight. Concurrent callers for the same key share one loader
// call. A failed load is remembered for policy.NegativeTTL; if an expired
// value is still around it is returned wrapped in ErrServedStale.
func (s *Store) GetOrLoad(ctx context.Context, key string, policy Policy, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		metrics.CacheHits.Inc()
		return value, nil
	}
	if err, ok := s.cooldown(key); ok {
		return s.degrade(key, err)
	}

	value, err, shared := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}
		if negErr, ok := s.cooldown(key); ok {
			return nil, negErr
		}

		metrics.CacheMisses.Inc()
		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			if policy.NegativeTTL > 0 {
				s.setNegative(key, loadErr, policy.NegativeTTL)
			}
			return nil, loadErr
		}

		s.set(key, loaded, policy.TTL)
		return loaded, nil
	})
	if shared {
		metrics.SingleFlightShared.Inc()
	}
	if err != nil && !errors.Is(err, ErrServedStale) {
		return s.degrade(key, err)
	}

	return value, err
}

// degrade falls back to an expired entry when a load failed.
func (s *Store) degrade(key string, cause error) (any, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, cause
	}

	metrics.CacheStaleServed.Inc()
	return e.value, fmt.Errorf("%w: %v", ErrServedStale, cause)
}

func (s *Store) set(key string, value any, ttl time.Duration) {
	now := s.now()
	e := entry{value: value, storedAt: now}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = e
	delete(s.negatives, key)
	s.mu.Unlock()
}

func (s *Store) setNegative(key string, err error, ttl time.Duration) {
	s.mu.Lock()
	s.negatives[key] = negativeEntry{err: err, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
}

func (s *Store) cooldown(key string) (error, bool) {
	s.mu.RLock()
	n, ok := s.negatives[key]
	s.mu.RUnlock()
	if !ok || !n.expiresAt.After(s.now()) {
		return nil, false
	}
	return n.err, true
}
