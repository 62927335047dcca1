package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartScheduler runs the periodic maintenance jobs: retrying failed history
// writes and resuming AI matches that were left ready. Both run once at start.
// The caller owns the returned scheduler and must call Shutdown.
func StartScheduler(ctx context.Context, ts TournamentService, interval time.Duration, logger *slog.Logger) (gocron.Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	jobs := []struct {
		name string
		run  func(context.Context) error
	}{
		{name: "history-retry", run: ts.RetryPendingHistory},
		{name: "resume-simulations", run: ts.ResumePending},
	}
	for _, j := range jobs {
		_, err := sched.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(func() {
				runCtx, cancel := context.WithTimeout(ctx, interval)
				defer cancel()
				if err := j.run(runCtx); err != nil {
					logger.Warn("scheduled job failed", slog.String("job", j.name), slog.Any("error", err))
				}
			}),
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			_ = sched.Shutdown()
			return nil, fmt.Errorf("failed to schedule %s: %w", j.name, err)
		}
	}

	sched.Start()
	logger.Info("scheduler started", slog.Duration("interval", interval))
	return sched, nil
}
