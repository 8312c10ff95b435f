package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of periodic work.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// TaskFunc adapts a function to Task.
type TaskFunc struct {
	TaskName string
	Fn       func(ctx context.Context) error
}

func (t TaskFunc) Name() string                  { return t.TaskName }
func (t TaskFunc) Run(ctx context.Context) error { return t.Fn(ctx) }

type Scheduler struct {
	task     Task
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

func NewScheduler(task Task, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		task:     task,
		interval: interval,
		timeout:  time.Minute,
		logger:   logger.With(zap.String("task", task.Name())),
	}
}

// Start runs the task once, then every interval until ctx is cancelled.
// Task failures are logged and do not stop the loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))

	s.run(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.task.Run(runCtx); err != nil {
		s.logger.Error("task failed", zap.Error(err))
	}
}
