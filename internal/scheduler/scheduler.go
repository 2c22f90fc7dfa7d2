// Package scheduler runs periodic tasks for watch mode.
package scheduler

import (
	"context"
	"log"
	"time"
)

type Task func(ctx context.Context) error

// Every runs task now and then on every tick until ctx ends. Runs never
// overlap: ticks that fire while a run is in progress are dropped.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	run := func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[%s] panic: %v", name, r)
			}
		}()
		if err := task(ctx); err != nil {
			log.Printf("[%s] error: %v", name, err)
		}
	}

	run()

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
