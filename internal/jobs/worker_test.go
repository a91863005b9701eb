package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	perr "sportsource/internal/platform/errors"

	"github.com/rs/zerolog"
)

type fakeStore struct {
	mu        sync.Mutex
	due       []Job
	completed []string
	failed    []failCall
	leaseErr  error
}

type failCall struct {
	id       string
	attempts int
	max      int
	retryIn  time.Duration
}

func (f *fakeStore) LeaseDue(_ context.Context, limit int, _ time.Duration) ([]Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.leaseErr != nil {
		return nil, f.leaseErr
	}
	n := min(limit, len(f.due))
	out := f.due[:n]
	f.due = f.due[n:]
	return out, nil
}

func (f *fakeStore) Complete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeStore) Fail(_ context.Context, id string, attempts, maxAttempts int, _ error, retryIn time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, failCall{id: id, attempts: attempts, max: maxAttempts, retryIn: retryIn})
	return nil
}

func newTestWorker(store Store) *Worker {
	return NewWorker(store, WorkerOptions{RetryAfter: time.Minute}, zerolog.Nop())
}

func TestDrainOnce_SuccessCompletesJob(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{due: []Job{{ID: "j1", Kind: "work", Attempts: 1, MaxAttempts: 5}}}
	w := newTestWorker(fs)

	var handled []string
	w.Register("work", func(_ context.Context, j Job) error {
		handled = append(handled, j.ID)
		return nil
	})

	n, err := w.DrainOnce(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("DrainOnce = (%d, %v)", n, err)
	}
	if len(handled) != 1 || handled[0] != "j1" {
		t.Fatalf("handler calls: %v", handled)
	}
	if len(fs.completed) != 1 || fs.completed[0] != "j1" {
		t.Fatalf("completed: %v", fs.completed)
	}
	if len(fs.failed) != 0 {
		t.Fatalf("unexpected failures: %v", fs.failed)
	}
}

func TestDrainOnce_HandlerErrorReleasesWithBudget(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{due: []Job{{ID: "j2", Kind: "work", Attempts: 2, MaxAttempts: 5}}}
	w := newTestWorker(fs)
	w.Register("work", func(_ context.Context, _ Job) error { return errors.New("boom") })

	if _, err := w.DrainOnce(context.Background()); err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if len(fs.failed) != 1 {
		t.Fatalf("expected one Fail call, got %v", fs.failed)
	}
	fc := fs.failed[0]
	if fc.attempts != 2 || fc.max != 5 || fc.retryIn != time.Minute {
		t.Fatalf("Fail call: %+v", fc)
	}
	if len(fs.completed) != 0 {
		t.Fatalf("failed job must not be completed")
	}
}

func TestDrainOnce_UnroutableKindParksImmediately(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{due: []Job{{ID: "j3", Kind: "nobody-home", Attempts: 1, MaxAttempts: 5}}}
	w := newTestWorker(fs)

	if _, err := w.DrainOnce(context.Background()); err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if len(fs.failed) != 1 {
		t.Fatalf("expected one Fail call, got %v", fs.failed)
	}
	// attempts forced to max so the job goes dead without burning retries
	if fs.failed[0].attempts != fs.failed[0].max {
		t.Fatalf("unroutable job must be parked dead: %+v", fs.failed[0])
	}
}

func TestDrainOnce_InvalidArgumentErrorParksDead(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{due: []Job{{ID: "j4", Kind: "work", Attempts: 1, MaxAttempts: 5}}}
	w := newTestWorker(fs)
	w.Register("work", func(_ context.Context, _ Job) error {
		return perr.Newf(perr.ErrorCodeInvalidArgument, "no processor registered for espn/football-ncaa/athlete-season")
	})

	if _, err := w.DrainOnce(context.Background()); err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if len(fs.failed) != 1 {
		t.Fatalf("expected one Fail call, got %v", fs.failed)
	}
	if fs.failed[0].attempts != fs.failed[0].max {
		t.Fatalf("misrouted job must be parked dead, not retried: %+v", fs.failed[0])
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{}
	w := newTestWorker(fs)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run = %v, want deadline exceeded", err)
	}
}
