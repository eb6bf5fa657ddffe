// Package scheduler drives the ingestion and report jobs from cron
// expressions. Triggers are evaluated against an explicit instant so
// the loop can be exercised in tests without sleeping.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job is one unit of scheduled work. Errors are logged, never fatal;
// the trigger simply fires again at its next instant.
type Job func(ctx context.Context) error

type trigger struct {
	name  string
	sched cron.Schedule
	next  time.Time
	job   Job
}

// Scheduler owns a set of cron triggers and runs them sequentially.
// Jobs share the process's store and sinks, so overlapping runs are
// avoided on purpose.
type Scheduler struct {
	parser   cron.Parser
	triggers []*trigger
	loc      *time.Location
}

func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		// standard 5-field expressions: minute hour day-of-month month day-of-week
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		loc:    loc,
	}
}

// Add registers a job under a cron expression. The first firing instant
// is computed lazily on the first RunPending or Until call.
func (s *Scheduler) Add(name, spec string, job Job) error {
	sched, err := s.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("schedule %q for %s: %w", spec, name, err)
	}
	s.triggers = append(s.triggers, &trigger{name: name, sched: sched, job: job})
	return nil
}

// Until reports how long until the earliest trigger fires after now.
func (s *Scheduler) Until(now time.Time) time.Duration {
	now = now.In(s.loc)
	var earliest time.Time
	for _, t := range s.triggers {
		if t.next.IsZero() {
			t.next = t.sched.Next(now)
		}
		if earliest.IsZero() || t.next.Before(earliest) {
			earliest = t.next
		}
	}
	if earliest.IsZero() {
		return time.Hour
	}
	if d := earliest.Sub(now); d > 0 {
		return d
	}
	return 0
}

// RunPending executes every trigger whose instant has passed, once each,
// and advances it past now. A trigger missed across a long stall fires a
// single time, not once per missed instant.
func (s *Scheduler) RunPending(ctx context.Context, now time.Time) int {
	now = now.In(s.loc)
	ran := 0
	for _, t := range s.triggers {
		if t.next.IsZero() {
			t.next = t.sched.Next(now)
			continue
		}
		if t.next.After(now) {
			continue
		}
		log.Info().Str("job", t.name).Time("due", t.next).Msg("trigger firing")
		if err := t.job(ctx); err != nil {
			log.Error().Str("job", t.name).Err(err).Msg("scheduled job failed")
		}
		t.next = t.sched.Next(now)
		ran++
	}
	return ran
}

// Run blocks until ctx is cancelled, sleeping between firing instants.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.triggers) == 0 {
		return fmt.Errorf("no triggers registered")
	}
	for _, t := range s.triggers {
		t.next = t.sched.Next(time.Now().In(s.loc))
		log.Info().Str("job", t.name).Time("next", t.next).Msg("trigger registered")
	}

	timer := time.NewTimer(s.Until(time.Now()))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			s.RunPending(ctx, time.Now())
			timer.Reset(s.Until(time.Now()))
		}
	}
}
