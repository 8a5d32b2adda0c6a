package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crosscrm/crm/internal/agent"
	"github.com/crosscrm/crm/internal/analytics"
	"github.com/crosscrm/crm/internal/events"
	"github.com/crosscrm/crm/internal/metrics"
	"github.com/crosscrm/crm/internal/pipeline"
	"github.com/crosscrm/crm/internal/seed"
	"github.com/crosscrm/crm/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when enabled, the agent scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	s, closeDB, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := seed.Seed(ctx, s); err != nil {
		return fmt.Errorf("seed data: %w", err)
	}

	m := metrics.New()
	var publisher events.Publisher = events.Nop{}
	if a.cfg.NATSURL != "" {
		p, drain, err := events.Connect(a.cfg.NATSURL, a.log)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer drain()
		publisher = p
		a.log.Info().Str("url", a.cfg.NATSURL).Msg("publishing deal events")
	}

	engine := pipeline.New(s,
		pipeline.WithPublisher(publisher),
		pipeline.WithMetrics(m),
		pipeline.WithLogger(a.log),
	)
	reports := analytics.NewService(s)

	llm, err := a.newLLM()
	if err != nil {
		return err
	}
	runner := agent.NewRunner(s, reports, llm, agent.WithMetrics(m), agent.WithLogger(a.log))
	if !runner.Enabled() {
		a.log.Warn().Msg("OPENAI_API_KEY not set; agent endpoints are disabled")
	}

	var sched *agent.Scheduler
	if a.cfg.SchedulerEnabled && runner.Enabled() {
		if sched, err = agent.NewScheduler(runner, a.cfg.AgentSchedule, a.log); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr: a.cfg.Addr,
		Handler: server.NewHandler(server.Deps{
			Store:     s,
			Engine:    engine,
			Analytics: reports,
			Runner:    runner,
			Metrics:   m,
			Log:       a.log,
			AuthToken: a.cfg.AuthToken,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info().Str("addr", a.cfg.Addr).Msg("starting crm server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if sched != nil {
		g.Go(func() error { return sched.Run(gctx) })
	}

	return g.Wait()
}
