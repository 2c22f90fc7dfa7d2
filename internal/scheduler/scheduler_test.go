package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestEveryRunsImmediatelyAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs, active, overlap atomic.Int32

	done := make(chan struct{})
	go func() {
		Every(ctx, 5*time.Millisecond, "test", func(ctx context.Context) error {
			if active.Add(1) > 1 {
				overlap.Add(1)
			}
			defer active.Add(-1)
			if runs.Add(1) == 3 {
				cancel()
			}
			time.Sleep(10 * time.Millisecond)
			return errors.New("keeps going")
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Every did not stop after cancel")
	}
	if runs.Load() < 3 {
		t.Fatalf("runs=%d want >= 3", runs.Load())
	}
	if overlap.Load() != 0 {
		t.Fatalf("runs overlapped")
	}
}
