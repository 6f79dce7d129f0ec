// Package schedule requests periodic rebuilds through gocron.
package schedule

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Spec selects when rebuilds fire: a fixed interval or a cron expression.
// Exactly one must be set.
type Spec struct {
	Every time.Duration
	Cron  string
}

// Validate checks that exactly one trigger is configured.
func (s Spec) Validate() error {
	switch {
	case s.Every > 0 && s.Cron != "":
		return errors.New("set either an interval or a cron expression, not both")
	case s.Every < 0:
		return errors.New("interval must be positive")
	case s.Every == 0 && s.Cron == "":
		return errors.New("an interval or a cron expression is required")
	}
	return nil
}

func (s Spec) definition() gocron.JobDefinition {
	if s.Cron != "" {
		return gocron.CronJob(s.Cron, false)
	}
	return gocron.DurationJob(s.Every)
}

func (s Spec) String() string {
	if s.Cron != "" {
		return "cron " + s.Cron
	}
	return "every " + s.Every.String()
}

// Scheduler wraps gocron scheduler for managing periodic rebuilds.
type Scheduler struct {
	scheduler gocron.Scheduler
	jobID     string
}

// New creates a scheduler that calls fire on every tick of spec. Ticks
// that arrive while fire is still running are skipped.
func New(spec Spec, fire func(), opts ...gocron.SchedulerOption) (*Scheduler, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	job, err := s.NewJob(
		spec.definition(),
		gocron.NewTask(fire),
		gocron.WithName("scheduled-build"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic build job: %w", err)
	}
	slog.Info("Scheduled periodic builds", slog.String("schedule", spec.String()))
	return &Scheduler{scheduler: s, jobID: job.ID().String()}, nil
}

// JobID returns the gocron job identifier.
func (s *Scheduler) JobID() string { return s.jobID }

// NextRun reports when the job fires next.
func (s *Scheduler) NextRun() (time.Time, error) {
	for _, j := range s.scheduler.Jobs() {
		if j.ID().String() == s.jobID {
			return j.NextRun()
		}
	}
	return time.Time{}, errors.New("scheduled job not found")
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
