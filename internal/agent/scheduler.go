package agent

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/crosscrm/crm/internal/config"
)

// Firing is one scheduled agent at a time of day.
type Firing struct {
	Hour   int
	Minute int
	Agent  string
}

// Scheduler runs agents at fixed times of day.
type Scheduler struct {
	runner  *Runner
	firings []Firing
	now     func() time.Time
	log     zerolog.Logger
}

// NewScheduler validates the schedule against the registered agents.
func NewScheduler(r *Runner, schedule []config.ScheduleEntry, log zerolog.Logger) (*Scheduler, error) {
	firings := make([]Firing, 0, len(schedule))
	for _, e := range schedule {
		if _, ok := registry[e.Agent]; !ok {
			return nil, fmt.Errorf("schedule %s: %w: %q", e.At, ErrUnknownAgent, e.Agent)
		}
		h, m, err := config.ParseClock(e.At)
		if err != nil {
			return nil, err
		}
		firings = append(firings, Firing{Hour: h, Minute: m, Agent: e.Agent})
	}
	sort.SliceStable(firings, func(i, j int) bool {
		return firings[i].Hour*60+firings[i].Minute < firings[j].Hour*60+firings[j].Minute
	})
	return &Scheduler{runner: r, firings: firings, now: time.Now, log: log}, nil
}

// Next returns the firings due at the earliest scheduled time strictly after
// t, and that time. It returns nil when the schedule is empty.
func (s *Scheduler) Next(t time.Time) ([]Firing, time.Time) {
	var (
		due  []Firing
		when time.Time
	)
	for _, f := range s.firings {
		at := time.Date(t.Year(), t.Month(), t.Day(), f.Hour, f.Minute, 0, 0, t.Location())
		if !at.After(t) {
			at = at.AddDate(0, 0, 1)
		}
		switch {
		case when.IsZero() || at.Before(when):
			due, when = []Firing{f}, at
		case at.Equal(when):
			due = append(due, f)
		}
	}
	return due, when
}

// Run blocks until ctx is cancelled, firing agents as they come due. A
// failed firing is logged and does not affect later ones.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.firings) == 0 {
		s.log.Info().Msg("agent scheduler has nothing to run")
		<-ctx.Done()
		return nil
	}

	for {
		due, when := s.Next(s.now())
		s.log.Debug().Time("next", when).Int("agents", len(due)).Msg("agent scheduler waiting")

		timer := time.NewTimer(time.Until(when))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info().Msg("agent scheduler stopped")
			return nil
		case <-timer.C:
		}

		for _, f := range due {
			s.Fire(ctx, f.Agent)
		}
	}
}

// Fire runs one scheduled agent for every subject it applies to.
func (s *Scheduler) Fire(ctx context.Context, agent string) {
	if err := s.runner.RunAll(ctx, agent); err != nil {
		s.log.Error().Err(err).Str("agent", agent).Msg("scheduled agent run failed")
		return
	}
	s.log.Info().Str("agent", agent).Msg("scheduled agent run completed")
}
