package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"streamer-stats/internal/normalize"
)

// Show prints the stored history rows of one streamer.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	table := normalize.TableName(opts.Streamer)
	rows, err := store.ListRows(ctx, table)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stdout, "no rows stored for %s\n", opts.Streamer)
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Period\tAvg Viewers\tStream Days")
	for _, row := range rows {
		fmt.Fprintf(writer, "%s\t%s\t%s\n", row.Period, formatMetric(row.AverageViewers), formatMetric(row.StreamDays))
	}
	writer.Flush()
	return nil
}

func formatMetric(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
