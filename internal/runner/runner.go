// Package runner is the run coordinator: it takes queued applications one
// at a time through the apply state machine and records the run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"jobgate-engine/internal/domain"
	"jobgate-engine/internal/events"

	"github.com/gofrs/flock"
)

// ErrBusy means another run holds the data dir lock.
var ErrBusy = errors.New("another run is in progress")

type Store interface {
	ListApplications(ctx context.Context, status domain.AppStatus, limit int) ([]domain.Application, error)
	UpdateApplication(ctx context.Context, a *domain.Application) error
	CreateRun(ctx context.Context) (domain.Run, error)
	FinishRun(ctx context.Context, r domain.Run) error
}

// Processor drives one application to a terminal state.
type Processor interface {
	Run(ctx context.Context, app *domain.Application) error
}

type Coordinator struct {
	Store   Store
	Machine Processor
	Events  events.Publisher
	// LockDir holds run.lock; empty disables locking.
	LockDir string
}

type Summary struct {
	RunID       string
	Processed   int
	Submitted   int
	Skipped     int
	Errored     int
	Interrupted bool
}

func (s Summary) String() string {
	state := "completed"
	if s.Interrupted {
		state = "interrupted"
	}
	return fmt.Sprintf("run %s %s: processed=%d submitted=%d skipped=%d error=%d",
		s.RunID, state, s.Processed, s.Submitted, s.Skipped, s.Errored)
}

// Run processes at most limit queued applications (all when limit <= 0),
// strictly in sequence. One application failing never stops the batch.
// Cancelling ctx stops the batch before the next application; the one in
// flight always finishes.
func (c *Coordinator) Run(ctx context.Context, limit int) (Summary, error) {
	var sum Summary

	unlock, err := c.lock()
	if err != nil {
		return sum, err
	}
	defer unlock()

	apps, err := c.Store.ListApplications(ctx, domain.AppQueued, limit)
	if err != nil {
		return sum, fmt.Errorf("load queue: %w", err)
	}

	run, err := c.Store.CreateRun(ctx)
	if err != nil {
		return sum, err
	}
	sum.RunID = run.ID
	log.Printf("[run] start id=%s queued=%d", run.ID, len(apps))
	c.emit(events.TypeRunStarted, sum)

	for i := range apps {
		if ctx.Err() != nil {
			log.Printf("[run] aborted by operator, %d application(s) left queued", len(apps)-i)
			sum.Interrupted = true
			break
		}
		app := &apps[i]
		c.process(context.WithoutCancel(ctx), run.ID, app)

		sum.Processed++
		switch app.Status {
		case domain.AppSubmitted:
			sum.Submitted++
		case domain.AppSkipped:
			sum.Skipped++
		case domain.AppError:
			sum.Errored++
		default:
			log.Printf("[run] application %s left in %s", app.ID, app.Status)
		}
	}

	run.Processed, run.Submitted, run.Skipped, run.Errored = sum.Processed, sum.Submitted, sum.Skipped, sum.Errored
	run.Status = domain.RunCompleted
	if sum.Interrupted {
		run.Status = domain.RunInterrupted
	}
	if err := c.Store.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		log.Printf("[run] finish record id=%s err=%v", run.ID, err)
	}
	log.Printf("[run] %s", sum)
	c.emit(events.TypeRunFinished, sum)
	return sum, nil
}

func (c *Coordinator) process(ctx context.Context, runID string, app *domain.Application) {
	var cause error
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[run] application %s panicked: %v", app.ID, r)
			cause = fmt.Errorf("panic: %v", r)
		}
		if !app.Status.Terminal() {
			c.settle(ctx, app, cause)
		}
	}()

	app.RunID = runID
	if err := c.Store.UpdateApplication(ctx, app); err != nil {
		log.Printf("[run] tag application %s: %v", app.ID, err)
	}
	cause = c.Machine.Run(ctx, app)
	if cause != nil {
		log.Printf("[run] application %s ended with %s: %v", app.ID, app.Status, cause)
	}
}

// settle moves an application the machine could not finish to error, so
// no application is left mid-flight after a run.
func (c *Coordinator) settle(ctx context.Context, app *domain.Application, cause error) {
	if cause == nil {
		cause = errors.New("did not reach a terminal state")
	}
	from := app.Status
	now := time.Now().UTC()
	next := *app
	next.Status = domain.AppError
	next.CompletedAt = &now
	if next.ErrorMessage == "" {
		next.ErrorMessage = cause.Error()
	}
	if err := c.Store.UpdateApplication(ctx, &next); err != nil {
		log.Printf("[run] could not record error for %s: %v", app.ID, err)
		return
	}
	*app = next
	log.Printf("[run] settled id=%s from=%s status=%s", app.ID, from, app.Status)
	if c.Events != nil {
		c.Events.Emit(events.TypeTransition, events.Transition{
			ApplicationID: app.ID, JobID: app.JobID,
			From: string(from), To: string(app.Status), Error: app.ErrorMessage,
		})
	}
}

func (c *Coordinator) emit(typ string, s Summary) {
	if c.Events != nil {
		c.Events.Emit(typ, s)
	}
}

func (c *Coordinator) lock() (func(), error) {
	if c.LockDir == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(c.LockDir, 0o755); err != nil {
		return nil, fmt.Errorf("lock dir: %w", err)
	}
	fl := flock.New(filepath.Join(c.LockDir, "run.lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			log.Printf("[run] release lock: %v", err)
		}
	}, nil
}
