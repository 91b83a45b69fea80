package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"

	"streamer-stats/internal/fetcher"
	"streamer-stats/internal/normalize"
	"streamer-stats/internal/storage"
)

// Pipeline runs one ingestion pass: ranked streamers in, history rows out.
type Pipeline struct {
	ranking fetcher.RankingFetcher
	history fetcher.HistoryFetcher
	store   storage.StreamerStore
	logger  zerolog.Logger
	windows []string
	workers int
}

// Summary reports what a single run accomplished.
type Summary struct {
	Streamers int
	Records   int
	Inserted  int
}

// New constructs an ingestion pipeline. workers bounds the history fetch
// fan-out; the source client's rate limiter keeps the pace polite regardless.
func New(ranking fetcher.RankingFetcher, history fetcher.HistoryFetcher, store storage.StreamerStore, workers int, logger zerolog.Logger) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		ranking: ranking,
		history: history,
		store:   store,
		logger:  logger.With().Str("component", "pipeline").Logger(),
		windows: fetcher.HistoryWindows(),
		workers: workers,
	}
}

// Run executes the full ingestion sequence: ranking, per-streamer history,
// schema ensure, normalize, append. A failed ranking fetch degrades to an
// empty ranking; the run then ends with nothing to do.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	entities, err := p.ranking.FetchRanking(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("ranking fetch failed; continuing with empty ranking")
		entities = nil
	}
	if len(entities) == 0 {
		p.logger.Info().Msg("no streamers in ranking; nothing to ingest")
		return Summary{}, nil
	}

	historyByEntity := p.collectHistory(ctx, entities)

	if err := p.store.EnsureTables(ctx, entities); err != nil {
		return Summary{Streamers: len(entities)}, fmt.Errorf("ensure tables: %w", err)
	}

	tables := normalize.Normalize(historyByEntity)

	summary := Summary{Streamers: len(entities)}
	for _, table := range sortedKeys(tables) {
		rows := tables[table]
		summary.Records += len(rows)
		if len(rows) == 0 {
			continue
		}

		inserted, appendErr := p.store.AppendRows(ctx, table, rows)
		if appendErr != nil {
			p.logger.Error().Err(appendErr).Str("table", table).Msg("failed to append rows")
			continue
		}
		summary.Inserted += inserted
	}

	p.logger.Info().
		Int("streamers", summary.Streamers).
		Int("records", summary.Records).
		Int("inserted", summary.Inserted).
		Msg("ingestion run complete")

	return summary, nil
}

// collectHistory fetches every (streamer, window) snapshot with a bounded
// worker pool. A failed or empty fetch drops that window's record only;
// streamers with no records at all keep an entry with an empty slice.
func (p *Pipeline) collectHistory(ctx context.Context, entities []string) map[string][]fetcher.HistoryRecord {
	mapper := iter.Mapper[string, []fetcher.HistoryRecord]{MaxGoroutines: p.workers}

	results := mapper.Map(entities, func(entity *string) []fetcher.HistoryRecord {
		records := make([]fetcher.HistoryRecord, 0, len(p.windows))
		for _, window := range p.windows {
			record, err := p.history.FetchHistory(ctx, *entity, window)
			if err != nil {
				p.logger.Error().Err(err).
					Str("streamer", *entity).
					Str("window", window).
					Msg("history fetch failed")
				continue
			}
			if record == nil {
				continue
			}
			records = append(records, *record)
		}
		return records
	})

	historyByEntity := make(map[string][]fetcher.HistoryRecord, len(entities))
	for i, entity := range entities {
		historyByEntity[entity] = results[i]
	}
	return historyByEntity
}

func sortedKeys(tables map[string][]normalize.Row) []string {
	keys := make([]string, 0, len(tables))
	for key := range tables {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
