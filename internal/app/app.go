package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"streamer-stats/internal/config"
	"streamer-stats/internal/fetcher"
	"streamer-stats/internal/pipeline"
	"streamer-stats/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newSource() *fetcher.Charts {
	src := a.Config.Source
	return fetcher.NewCharts(fetcher.ChartsOptions{
		BaseURL:        src.BaseURL,
		Platform:       src.Platform,
		ClientID:       src.ClientID,
		Token:          src.Token,
		TestingMode:    src.TestingMode,
		TopN:           src.TopN,
		Timeout:        src.RequestTimeout,
		PoliteInterval: src.PoliteInterval,
		RetryMax:       src.RetryMax,
		RetryWaitMin:   src.RetryWaitMin,
		RetryWaitMax:   src.RetryWaitMax,
	}, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool, a.Logger)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newPipeline(store storage.StreamerStore) *pipeline.Pipeline {
	source := a.newSource()
	return pipeline.New(source, source, store, a.Config.Source.Workers, a.Logger)
}

// RunOnce executes a single ingestion run and returns.
func (a *App) RunOnce(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	p := a.newPipeline(store)

	a.Logger.Info().Msg("starting ingestion run")
	if _, err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("ingestion run failed")
		return err
	}
	return nil
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Streamer string
}

// VerifyOptions configure the verify command.
type VerifyOptions struct {
	Streamer string
}
