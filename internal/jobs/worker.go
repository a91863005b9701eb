package jobs

import (
	"context"
	"time"

	perr "sportsource/internal/platform/errors"
	"sportsource/internal/platform/logger"
)

// WorkerOptions tunes the drain loop
type WorkerOptions struct {
	Interval    time.Duration
	BatchSize   int
	Concurrency int
	LeaseFor    time.Duration
	RetryAfter  time.Duration
}

// Worker leases due jobs and dispatches them to registered handlers
type Worker struct {
	store    Store
	handlers map[string]Handler
	opt      WorkerOptions
	log      logger.Logger
}

// NewWorker builds a worker over the given store
func NewWorker(store Store, opt WorkerOptions, log logger.Logger) *Worker {
	if opt.Interval <= 0 {
		opt.Interval = 500 * time.Millisecond
	}
	if opt.BatchSize <= 0 {
		opt.BatchSize = 20
	}
	if opt.Concurrency <= 0 {
		opt.Concurrency = 4
	}
	if opt.LeaseFor <= 0 {
		opt.LeaseFor = 60 * time.Second
	}
	if opt.RetryAfter <= 0 {
		opt.RetryAfter = 30 * time.Second
	}
	return &Worker{
		store:    store,
		handlers: map[string]Handler{},
		opt:      opt,
		log:      log.With().Str("component", "jobs-worker").Logger(),
	}
}

// Register wires a handler for a job kind; last registration wins
func (w *Worker) Register(kind string, h Handler) {
	w.handlers[kind] = h
}

// Run drains the queue until ctx is done
func (w *Worker) Run(ctx context.Context) error {
	sem := make(chan struct{}, w.opt.Concurrency)
	ticker := time.NewTicker(w.opt.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			batch, err := w.store.LeaseDue(ctx, w.opt.BatchSize, w.opt.LeaseFor)
			if err != nil {
				if ctx.Err() == nil {
					w.log.Error().Err(err).Msg("lease due jobs failed")
				}
				continue
			}
			for i := range batch {
				sem <- struct{}{}
				j := batch[i]
				go func() {
					defer func() { <-sem }()
					w.dispatch(ctx, j)
				}()
			}
		}
	}
}

// DrainOnce leases and runs one batch synchronously; used by tests and the
// admin drain endpoint
func (w *Worker) DrainOnce(ctx context.Context) (int, error) {
	batch, err := w.store.LeaseDue(ctx, w.opt.BatchSize, w.opt.LeaseFor)
	if err != nil {
		return 0, err
	}
	for i := range batch {
		w.dispatch(ctx, batch[i])
	}
	return len(batch), nil
}

func (w *Worker) dispatch(ctx context.Context, j Job) {
	h, ok := w.handlers[j.Kind]
	if !ok {
		// an unroutable kind is a deployment gap, not transient failure;
		// burn no retry budget and park it as dead immediately
		err := perr.Newf(perr.ErrorCodeInvalidArgument, "jobs: no handler for kind %q", j.Kind)
		w.log.Error().Str("job_id", j.ID).Str("kind", j.Kind).Msg("no handler registered")
		if ferr := w.store.Fail(ctx, j.ID, j.MaxAttempts, j.MaxAttempts, err, 0); ferr != nil {
			w.log.Error().Err(ferr).Str("job_id", j.ID).Msg("park unroutable job failed")
		}
		return
	}

	if err := h(ctx, j); err != nil {
		w.log.Warn().Err(err).Str("job_id", j.ID).Str("kind", j.Kind).Int("attempts", j.Attempts).Msg("job failed")
		attempts := j.Attempts
		if perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			// configuration errors cannot heal on retry
			attempts = j.MaxAttempts
		}
		if ferr := w.store.Fail(ctx, j.ID, attempts, j.MaxAttempts, err, w.opt.RetryAfter); ferr != nil {
			w.log.Error().Err(ferr).Str("job_id", j.ID).Msg("release job failed")
		}
		return
	}
	if err := w.store.Complete(ctx, j.ID); err != nil {
		w.log.Error().Err(err).Str("job_id", j.ID).Msg("complete job failed")
	}
}
