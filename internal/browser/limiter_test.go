package browser

import (
	"context"
	"testing"
	"time"
)

func TestHostLimiterSeparatesHosts(t *testing.T) {
	hl := NewHostLimiter(1, 1)
	ctx := context.Background()

	if err := hl.WaitURL(ctx, "https://jobs.lever.co/acme/1"); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	start := time.Now()
	if err := hl.WaitURL(ctx, "https://boards.greenhouse.io/acme/jobs/2"); err != nil {
		t.Fatalf("other host: %v", err)
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Fatal("a fresh host must not wait on another host's budget")
	}

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := hl.WaitURL(short, "https://jobs.lever.co/acme/3"); err == nil {
		t.Fatal("second lever navigation within a second should have to wait")
	}
}

func TestNilLimiterAndZeroPause(t *testing.T) {
	var hl *HostLimiter
	if err := hl.WaitURL(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("nil limiter: %v", err)
	}
	if err := (Pause{}).Wait(context.Background()); err != nil {
		t.Fatalf("zero pause: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (Pause{Min: time.Second, Max: 2 * time.Second}).Wait(ctx); err == nil {
		t.Fatal("cancelled pause should return ctx error")
	}
}
