package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"streamer-stats/internal/scheduler"
)

// Watch runs the ingestion pipeline on a fixed schedule until interrupted.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	p := a.newPipeline(store)

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	a.Logger.Info().Dur("interval", a.Config.Scheduler.Interval).Msg("starting scheduled ingestion")
	err = sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
		_, runErr := p.Run(ctx)
		return runErr
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("scheduled ingestion terminated with error")
		return err
	}

	a.Logger.Info().Msg("scheduled ingestion stopped")
	return nil
}
