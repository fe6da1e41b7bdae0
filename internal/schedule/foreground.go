package schedule

import (
	"context"
	"fmt"

	"github.com/genricoloni/visuals/internal/domain"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Foreground drives the auto-change tick from an in-process scheduler for
// hosts without a usable system scheduler
type Foreground struct {
	logger *zap.Logger
	tick   func(ctx context.Context) error
	opts   []gocron.SchedulerOption
}

// NewForeground creates a runner invoking tick at every trigger
func NewForeground(logger *zap.Logger, tick func(ctx context.Context) error, opts ...gocron.SchedulerOption) *Foreground {
	return &Foreground{logger: logger, tick: tick, opts: opts}
}

// Run blocks until ctx is cancelled. Ticks never overlap.
func (r *Foreground) Run(ctx context.Context, f domain.Frequency) error {
	if err := f.Validate(); err != nil {
		return err
	}

	s, err := gocron.NewScheduler(r.opts...)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	job, err := s.NewJob(
		jobDefinition(f),
		gocron.NewTask(func() {
			if err := r.tick(ctx); err != nil {
				r.logger.Error("Auto-change tick failed", zap.Error(err))
			}
		}),
		gocron.WithName(AutoChangeCommand),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("create %s job: %w", f, err)
	}

	s.Start()
	if next, err := job.NextRun(); err == nil {
		r.logger.Info("Foreground scheduler started",
			zap.String("frequency", f.Describe()),
			zap.Time("next", next))
	}

	<-ctx.Done()
	r.logger.Info("Foreground scheduler stopping")
	return s.Shutdown()
}

func jobDefinition(f domain.Frequency) gocron.JobDefinition {
	if !f.Daily() {
		return gocron.DurationJob(f.Period())
	}
	t := f.TimeOfDay()
	return gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(t.Hour), uint(t.Minute), 0)))
}
