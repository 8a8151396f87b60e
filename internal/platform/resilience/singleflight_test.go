package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_Do(t *testing.T) {
	var g SingleFlight
	var counter int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err, _ := g.Do("standings-key", func() (any, error) {
				atomic.AddInt32(&counter, 1)
				time.Sleep(20 * time.Millisecond)
				return "ok", nil
			})
			if err != nil {
				t.Errorf("singleflight call failed: %v", err)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&counter); got != 1 {
		t.Fatalf("expected function to run once, got %d", got)
	}
}

func TestSingleFlight_Do_ReportsShared(t *testing.T) {
	var g SingleFlight

	release := make(chan struct{})
	leaderIn := make(chan struct{})

	go func() {
		_, _, _ = g.Do("k", func() (any, error) {
			close(leaderIn)
			<-release
			return 1, nil
		})
	}()

	<-leaderIn
	done := make(chan bool, 1)
	go func() {
		_, _, shared := g.Do("k", func() (any, error) { return 2, nil })
		done <- shared
	}()

	time.Sleep(10 * time.Millisecond)
	close(release)

	if shared := <-done; !shared {
		t.Fatal("expected follower call to report shared execution")
	}
}
