// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Task is one named periodic job.
type Task struct {
	Name     string
	Schedule string
	Handler  func(ctx context.Context) error
}

type Scheduler struct {
	cron   *gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
	tasks  map[string]Task
	log    zerolog.Logger
}

func New(log zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{cron: s, ctx: ctx, cancel: cancel, tasks: make(map[string]Task), log: log}
}

// Register adds task. The schedule is a five-field cron expression.
func (s *Scheduler) Register(task Task) error {
	if _, dup := s.tasks[task.Name]; dup {
		return fmt.Errorf("task %s already registered", task.Name)
	}
	job, err := s.cron.Cron(task.Schedule).Do(func() {
		if _, err := s.run(task); err != nil {
			s.log.Error().Err(err).Str("task", task.Name).Msg("scheduled task failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", task.Name, err)
	}
	job.Tag(task.Name)
	s.tasks[task.Name] = task
	s.log.Info().Str("task", task.Name).Str("schedule", task.Schedule).Msg("task registered")
	return nil
}

func (s *Scheduler) run(task Task) (time.Duration, error) {
	start := time.Now()
	err := task.Handler(s.ctx)
	d := time.Since(start)
	if err == nil {
		s.log.Info().Str("task", task.Name).Dur("duration", d).Msg("scheduled task completed")
	}
	return d, err
}

// RunNow runs a registered task once, synchronously.
func (s *Scheduler) RunNow(name string) error {
	task, ok := s.tasks[name]
	if !ok {
		return fmt.Errorf("task %s not found", name)
	}
	_, err := s.run(task)
	return err
}

func (s *Scheduler) Start() {
	s.cron.StartAsync()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.cancel()
}
