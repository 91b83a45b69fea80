package fetcher

import (
	"context"
	"errors"
)

// Time windows accepted by the analytics API. The window label doubles as
// the natural key of a stored history row.
const (
	Window7Days     = "7-days"
	WindowLastMonth = "last-month"
	WindowLastYear  = "last-year"
)

// HistoryWindows returns every window fetched for each ranked streamer,
// in ingestion order.
func HistoryWindows() []string {
	return []string{Window7Days, WindowLastMonth, WindowLastYear}
}

// ErrSourceUnavailable marks a non-success response from the analytics API.
// Callers treat the result as empty/absent and continue; it is never fatal.
var ErrSourceUnavailable = errors.New("analytics source unavailable")

// HistoryRecord is one viewership snapshot for a streamer over one window.
// Metric fields are pointers so values absent upstream stay absent
// downstream instead of being defaulted to zero.
type HistoryRecord struct {
	EntityKey      string
	Period         string
	AverageViewers *int
	StreamDays     *int
}

// RankingFetcher retrieves the ranked streamer list for the current run.
type RankingFetcher interface {
	FetchRanking(ctx context.Context) ([]string, error)
}

// HistoryFetcher retrieves one streamer's snapshot for one window.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, entity, window string) (*HistoryRecord, error)
}
