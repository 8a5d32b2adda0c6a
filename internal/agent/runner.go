package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/crosscrm/crm/internal/analytics"
	"github.com/crosscrm/crm/internal/domain"
	"github.com/crosscrm/crm/internal/metrics"
	"github.com/crosscrm/crm/internal/store"
)

// Request names the agent to run and, for agents that need one, its subject.
type Request struct {
	Agent  string
	DealID *int64
	UserID *int64
}

// Runner builds prompts, calls the model and logs each exchange.
type Runner struct {
	store     *store.Store
	analytics *analytics.Service
	llm       LLM
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records run outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger sets the runner's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// NewRunner creates a Runner. llm may be nil, in which case every run fails
// with ErrDisabled.
func NewRunner(s *store.Store, a *analytics.Service, llm LLM, opts ...Option) *Runner {
	r := &Runner{store: s, analytics: a, llm: llm, log: zerolog.Nop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Enabled reports whether a model is configured.
func (r *Runner) Enabled() bool { return r.llm != nil }

// Run executes one agent. Once the prompt is built, the exchange is logged
// whether or not the model call succeeds; a failed call returns the logged
// run together with the error.
func (r *Runner) Run(ctx context.Context, req Request) (*domain.AgentRun, error) {
	def, ok := registry[req.Agent]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, req.Agent)
	}
	if r.llm == nil {
		return nil, ErrDisabled
	}

	prompt, err := def.build(ctx, r, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	completion, callErr := r.llm.Complete(ctx, def.system, prompt)
	run := &domain.AgentRun{
		Agent:      req.Agent,
		UserID:     req.UserID,
		Model:      completion.Model,
		Prompt:     prompt,
		Response:   completion.Content,
		Status:     domain.AgentRunSucceeded,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if def.subject != nil {
		run.SubjectID = def.subject(req)
	}
	if run.Model == "" {
		if n, ok := r.llm.(ModelNamer); ok {
			run.Model = n.Model()
		}
	}
	if callErr != nil {
		run.Status = domain.AgentRunFailed
		run.Error = callErr.Error()
	}

	// The log write must survive a cancelled request.
	stored, err := r.store.AgentRuns.Create(context.WithoutCancel(ctx), run)
	if err != nil {
		return nil, errors.Join(callErr, fmt.Errorf("record agent run: %w", err))
	}

	r.metrics.AgentRun(req.Agent, stored.Status)
	ev := r.log.Info()
	if callErr != nil {
		ev = r.log.Warn().Err(callErr)
	}
	ev.Str("agent", req.Agent).Int64("run_id", stored.ID).Int64("duration_ms", stored.DurationMS).Msg("agent run finished")

	if callErr != nil {
		return stored, fmt.Errorf("agent %s: %w", req.Agent, callErr)
	}
	return stored, nil
}

// RunAll runs an agent once per subject it applies to: daily briefings for
// every user, recommendations for every at-risk deal, and a single run for
// the rest. Each run is independent; failures are collected and returned
// together.
func (r *Runner) RunAll(ctx context.Context, agent string) error {
	var reqs []Request
	switch agent {
	case DailyBriefing:
		users, err := r.store.Users.All(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			reqs = append(reqs, Request{Agent: agent, UserID: &u.ID})
		}
	case Recommendation:
		risky, err := r.analytics.AtRisk(ctx)
		if err != nil {
			return err
		}
		for _, d := range risky {
			reqs = append(reqs, Request{Agent: agent, DealID: &d.DealID})
		}
	default:
		reqs = append(reqs, Request{Agent: agent})
	}

	var errs []error
	for _, req := range reqs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := r.Run(ctx, req); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Runs lists logged agent runs, newest first.
func (r *Runner) Runs(ctx context.Context, f domain.AgentRunFilter) ([]*domain.AgentRun, int, error) {
	return r.store.AgentRuns.List(ctx, f)
}

// GetRun returns one logged run.
func (r *Runner) GetRun(ctx context.Context, id int64) (*domain.AgentRun, error) {
	return r.store.AgentRuns.Get(ctx, id)
}
