package app

import (
	"context"
	"errors"
	"fmt"

	"streamer-stats/internal/normalize"
)

// Verify samples one stored row of a streamer table and checks it can be
// read back exactly. A spot check on ingestion integrity, not a full audit.
func (a *App) Verify(ctx context.Context, opts VerifyOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	table := normalize.TableName(opts.Streamer)

	row, err := store.RandomRow(ctx, table)
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("no rows stored for %s; run an ingestion first", opts.Streamer)
	}

	found, err := store.HasRow(ctx, table, *row)
	if err != nil {
		return err
	}
	if !found {
		a.Logger.Warn().Str("table", table).Str("period", row.Period).Msg("read-back check failed")
		return errors.New("read-back verification failed")
	}

	a.Logger.Info().Str("table", table).Str("period", row.Period).Msg("read-back check passed")
	return nil
}
