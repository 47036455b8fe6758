package fetch

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestPacerSpacingUnderConcurrency(t *testing.T) {
	const (
		rps     = 20.0
		callers = 10
	)
	interval := time.Duration(float64(time.Second) / rps)
	p := NewPacer(rps)

	var (
		mu    sync.Mutex
		times []time.Time
		wg    sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Acquire(context.Background()); err != nil {
				t.Error(err)
				return
			}
			now := time.Now()
			mu.Lock()
			times = append(times, now)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	// A little slack absorbs the gap between the grant and the timestamp.
	slack := interval / 4
	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]); gap < interval-slack {
			t.Errorf("grants %d and %d only %v apart, want >= %v", i-1, i, gap, interval)
		}
	}
}

func TestPacerCancellation(t *testing.T) {
	p := NewPacer(0.5) // 2s interval

	// Use the first token, then cancel while waiting on the second.
	if err := p.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Acquire(ctx); err == nil {
		t.Errorf("expected a cancellation error")
	}
}
