package watch

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps a gocron scheduler for the periodic reload check.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Stop shuts the scheduler down and waits for running jobs.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

// ScheduleEvery runs task every interval. Overlapping runs are skipped.
// Returns the job ID.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, task func()) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval must be positive, got %s", interval)
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	slog.Debug("Scheduled periodic job", slog.String("name", name), slog.Duration("interval", interval))
	return job.ID().String(), nil
}
