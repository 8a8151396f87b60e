package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore()
	policy := Policy{TTL: time.Minute}
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "same-key", policy, loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_UsesCachedValueAfterFirstLoad(t *testing.T) {
	t.Parallel()

	store := NewStore()
	policy := Policy{TTL: time.Minute}
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "cached", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", policy, loader); err != nil {
		t.Fatalf("first GetOrLoad error: %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", policy, loader); err != nil {
		t.Fatalf("second GetOrLoad error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_ImmortalEntryNeverExpires(t *testing.T) {
	t.Parallel()

	store := NewStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	var calls atomic.Int32
	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return 42, nil
	}

	if _, err := store.GetOrLoad(context.Background(), "final", Policy{}, loader); err != nil {
		t.Fatalf("load: %v", err)
	}

	now = now.Add(1000 * time.Hour)
	if _, err := store.GetOrLoad(context.Background(), "final", Policy{}, loader); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_NegativeCachingCoolsDown(t *testing.T) {
	t.Parallel()

	store := NewStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	policy := Policy{TTL: time.Minute, NegativeTTL: 10 * time.Second}
	boom := errors.New("upstream down")
	var calls atomic.Int32
	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return nil, boom
	}

	for i := 0; i < 3; i++ {
		if _, err := store.GetOrLoad(context.Background(), "k", policy, loader); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: expected loader error, got %v", i, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times during cooldown, want 1", got)
	}

	now = now.Add(11 * time.Second)
	if _, err := store.GetOrLoad(context.Background(), "k", policy, loader); !errors.Is(err, boom) {
		t.Fatalf("expected loader error after cooldown, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("loader called %d times after cooldown, want 2", got)
	}
}

func TestStore_GetOrLoad_ServesStaleOnLoaderFailure(t *testing.T) {
	t.Parallel()

	store := NewStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	policy := Policy{TTL: time.Minute, NegativeTTL: time.Second}
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		if calls == 1 {
			return "good", nil
		}
		return nil, errors.New("upstream down")
	}

	if _, err := store.GetOrLoad(context.Background(), "k", policy, loader); err != nil {
		t.Fatalf("first load: %v", err)
	}

	now = now.Add(2 * time.Minute)
	v, err := store.GetOrLoad(context.Background(), "k", policy, loader)
	if !errors.Is(err, ErrServedStale) {
		t.Fatalf("expected ErrServedStale, got %v", err)
	}
	if got, _ := v.(string); got != "good" {
		t.Fatalf("expected stale value %q, got %v", "good", v)
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
