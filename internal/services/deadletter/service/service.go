// Package service re-publishes dead-lettered messages back onto the broker
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"sportsource/internal/eventing"
	"sportsource/internal/platform/config"
	perr "sportsource/internal/platform/errors"
	"sportsource/internal/platform/logger"
	"sportsource/internal/platform/net/http/bind"
	"sportsource/internal/services/deadletter/domain"
)

// Config bounds a reprocess run
type Config struct {
	// MaxCount caps one batch; requests above it are rejected
	MaxCount int

	// MaxAttempts is the delivery budget messages are reset under when the
	// command asks for a reset
	MaxAttempts int
}

// FromConfig reads CORE_DEADLETTER_* settings
func FromConfig(cfg config.Conf) Config {
	d := cfg.Prefix("CORE_DEADLETTER_")
	return Config{
		MaxCount:    d.MayInt("MAX_COUNT", 100),
		MaxAttempts: d.MayInt("MAX_ATTEMPTS", 5),
	}
}

// Service peeks dead-lettered messages and redelivers them. Kinds the job
// worker consumes re-enter through the background queue; everything else
// replays to the broker directly.
type Service struct {
	Peek domain.Peeker
	Bus  eventing.Publisher
	Jobs eventing.JobSink // optional; nil sends every kind to the broker
	Dead domain.DeadJobs  // optional; nil disables the parked-job sweep
	Cfg  Config
	Log  *logger.Logger
}

// New constructs the dead-letter service
func New(peek domain.Peeker, bus eventing.Publisher, cfg Config) *Service {
	if peek == nil {
		panic("deadletter.Service requires a non nil Peeker")
	}
	if bus == nil {
		panic("deadletter.Service requires a non nil Publisher")
	}
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}

	return &Service{
		Peek: peek,
		Bus:  bus,
		Cfg:  cfg,
		Log:  logger.Named("deadletter"),
	}
}

// WithQueue wires the background job queue for pipeline-owned kinds
func (s *Service) WithQueue(jobs eventing.JobSink) *Service {
	s.Jobs = jobs
	return s
}

// WithDeadJobs wires the parked-job sweeper
func (s *Service) WithDeadJobs(dead domain.DeadJobs) *Service {
	s.Dead = dead
	return s
}

// wrapped is the management API's occasional envelope-in-envelope shape
type wrapped struct {
	Message json.RawMessage `json:"message"`
}

// Reprocess peeks up to cmd.Count messages and re-publishes each in direct
// mode. Messages stay on the queue; a per-message failure is recorded and
// the batch continues. The queue is never purged from here.
func (s *Service) Reprocess(ctx context.Context, cmd domain.ReprocessCommand) (domain.Result, error) {
	if err := bind.Get().Validator.Struct(cmd); err != nil {
		_, msg := bind.ValidationFieldAndMessage(err)
		return domain.Result{}, perr.Newf(perr.ErrorCodeValidation, "reprocess command invalid: %s", msg)
	}
	if cmd.Count > s.Cfg.MaxCount {
		return domain.Result{}, perr.Newf(perr.ErrorCodeValidation,
			"count %d exceeds the batch cap %d", cmd.Count, s.Cfg.MaxCount)
	}

	msgs, err := s.Peek.Peek(ctx, cmd.Queue, cmd.Count)
	if err != nil {
		return domain.Result{}, err
	}

	res := domain.Result{Requested: cmd.Count}
	ctx = eventing.WithDirect(ctx)
	for i, raw := range msgs {
		env, err := unwrap(raw)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("message %d: %v", i, err))
			continue
		}

		// a kind the worker drains goes back onto the job queue; replaying
		// it to the broker would never reach a handler
		if kind, ok := eventing.QueueKind(env.Kind); ok && s.Jobs != nil {
			if _, err := s.Jobs.Enqueue(ctx, kind, env.Payload, env.CorrelationID); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("message %d (%s): %v", i, env.ID, err))
				continue
			}
			res.Requeued++
			continue
		}

		if cmd.ResetAttempts {
			// one delivery left: enough to land, not enough to loop
			env.AttemptCount = s.Cfg.MaxAttempts - 1
		}
		if err := s.Bus.Publish(ctx, env); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("message %d (%s): %v", i, env.ID, err))
			continue
		}
		res.Requeued++
	}

	s.Log.Info().
		Str("queue", cmd.Queue).
		Int("requested", res.Requested).
		Int("requeued", res.Requeued).
		Int("errors", len(res.Errors)).
		Msg("dead-letter reprocess finished")
	return res, nil
}

// RequeueDead sweeps jobs the worker parked after exhausting their attempt
// budget back to pending. Each re-enters with one attempt left.
func (s *Service) RequeueDead(ctx context.Context, cmd domain.RequeueDeadCommand) (domain.RequeueResult, error) {
	if err := bind.Get().Validator.Struct(cmd); err != nil {
		_, msg := bind.ValidationFieldAndMessage(err)
		return domain.RequeueResult{}, perr.Newf(perr.ErrorCodeValidation, "requeue command invalid: %s", msg)
	}
	if cmd.Count > s.Cfg.MaxCount {
		return domain.RequeueResult{}, perr.Newf(perr.ErrorCodeValidation,
			"count %d exceeds the batch cap %d", cmd.Count, s.Cfg.MaxCount)
	}
	if s.Dead == nil {
		return domain.RequeueResult{}, perr.New(perr.ErrorCodeInvalidArgument, "deadletter: no job store configured")
	}

	n, err := s.Dead.RequeueDead(ctx, cmd.Kind, cmd.Count)
	if err != nil {
		return domain.RequeueResult{}, err
	}
	s.Log.Info().Str("kind", cmd.Kind).Int("requeued", n).Msg("parked jobs returned to pending")
	return domain.RequeueResult{Requeued: n}, nil
}

// unwrap decodes either {"message": {...}} or a bare envelope
func unwrap(raw eventing.RawMessage) (eventing.Envelope, error) {
	body := []byte(raw.Payload)

	var w wrapped
	if err := json.Unmarshal(body, &w); err == nil && len(w.Message) > 0 {
		body = w.Message
	}

	var env eventing.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return eventing.Envelope{}, perr.Wrap(err, perr.ErrorCodeJSON, "decode dead-lettered envelope")
	}
	if env.Kind == "" {
		return eventing.Envelope{}, perr.New(perr.ErrorCodeJSON, "dead-lettered envelope missing kind")
	}
	return env, nil
}
