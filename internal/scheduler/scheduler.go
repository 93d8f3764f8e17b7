package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cwrk-planet/chat-service/internal/logger"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs the periodic housekeeping jobs.
type Scheduler struct {
	s   gocron.Scheduler
	log *slog.Logger
}

func New() (*Scheduler, error) {
	l := logger.L().With(slog.String("component", "scheduler"))
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{s: s, log: l}, nil
}

// Every adds a job that runs task each interval. A run that overlaps the
// previous one is skipped.
func (s *Scheduler) Every(name string, every time.Duration, task func()) error {
	if every <= 0 {
		return fmt.Errorf("job %q: interval must be positive", name)
	}

	_, err := s.s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", name, err)
	}
	s.log.Info("job scheduled", slog.String("name", name), slog.Duration("every", every))

	return nil
}

func (s *Scheduler) Start() { s.s.Start() }

// Shutdown waits for running jobs.
func (s *Scheduler) Shutdown() error {
	if err := s.s.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}

	return nil
}
