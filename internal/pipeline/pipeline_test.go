package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"streamer-stats/internal/fetcher"
	"streamer-stats/internal/normalize"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func intPtr(v int) *int { return &v }

type fakeSource struct {
	mu         sync.Mutex
	ranking    []string
	rankingErr error
	history    map[string]map[string]*fetcher.HistoryRecord
	historyErr map[string]map[string]error
	calls      int
}

func (f *fakeSource) FetchRanking(ctx context.Context) ([]string, error) {
	if f.rankingErr != nil {
		return nil, f.rankingErr
	}
	return f.ranking, nil
}

func (f *fakeSource) FetchHistory(ctx context.Context, entity, window string) (*fetcher.HistoryRecord, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if errsByWindow, ok := f.historyErr[entity]; ok {
		if err, ok := errsByWindow[window]; ok {
			return nil, err
		}
	}
	if byWindow, ok := f.history[entity]; ok {
		return byWindow[window], nil
	}
	return nil, nil
}

type fakeStore struct {
	ensured  []string
	appended map[string][]normalize.Row
}

func newFakeStore() *fakeStore {
	return &fakeStore{appended: make(map[string][]normalize.Row)}
}

func (f *fakeStore) EnsureTables(ctx context.Context, entityKeys []string) error {
	f.ensured = append(f.ensured, entityKeys...)
	return nil
}

func (f *fakeStore) AppendRows(ctx context.Context, tableName string, rows []normalize.Row) (int, error) {
	f.appended[tableName] = append(f.appended[tableName], rows...)
	return len(rows), nil
}

func record(entity, period string, viewers, days int) *fetcher.HistoryRecord {
	return &fetcher.HistoryRecord{
		EntityKey:      entity,
		Period:         period,
		AverageViewers: intPtr(viewers),
		StreamDays:     intPtr(days),
	}
}

func TestRunEmptyRankingTouchesNothing(t *testing.T) {
	source := &fakeSource{}
	store := newFakeStore()
	p := New(source, source, store, 2, noopLogger())

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Streamers != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
	if source.calls != 0 {
		t.Fatal("no history fetches expected for an empty ranking")
	}
	if len(store.ensured) != 0 || len(store.appended) != 0 {
		t.Fatal("store must not be touched when the ranking is empty")
	}
}

func TestRunRankingFailureDegradesGracefully(t *testing.T) {
	source := &fakeSource{rankingErr: fetcher.ErrSourceUnavailable}
	store := newFakeStore()
	p := New(source, source, store, 2, noopLogger())

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("ranking failure must not abort the run: %v", err)
	}
	if len(store.ensured) != 0 {
		t.Fatal("store must not be touched after a failed ranking fetch")
	}
}

func TestRunPersistsNormalizedRows(t *testing.T) {
	source := &fakeSource{
		ranking: []string{"Foo", "bar"},
		history: map[string]map[string]*fetcher.HistoryRecord{
			"Foo": {
				fetcher.Window7Days:     record("Foo", fetcher.Window7Days, 120, 5),
				fetcher.WindowLastMonth: record("Foo", fetcher.WindowLastMonth, 100, 22),
			},
			"bar": {
				fetcher.Window7Days: record("bar", fetcher.Window7Days, 50, 3),
			},
		},
	}
	store := newFakeStore()
	p := New(source, source, store, 2, noopLogger())

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Streamers != 2 || summary.Records != 3 || summary.Inserted != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if source.calls != 6 {
		t.Fatalf("expected 6 history fetches (2 streamers x 3 windows), got %d", source.calls)
	}
	if len(store.ensured) != 2 {
		t.Fatalf("expected schema ensured for both streamers, got %v", store.ensured)
	}

	fooRows := store.appended["streamer_foo"]
	if len(fooRows) != 2 {
		t.Fatalf("expected 2 rows for streamer_foo, got %v", fooRows)
	}
	if fooRows[0].Period != fetcher.Window7Days || *fooRows[0].AverageViewers != 120 || *fooRows[0].StreamDays != 5 {
		t.Fatalf("unexpected streamer_foo row: %+v", fooRows[0])
	}
	if len(store.appended["streamer_bar"]) != 1 {
		t.Fatalf("expected 1 row for streamer_bar, got %v", store.appended["streamer_bar"])
	}
}

func TestRunFailedWindowIsolated(t *testing.T) {
	source := &fakeSource{
		ranking: []string{"bar"},
		history: map[string]map[string]*fetcher.HistoryRecord{
			"bar": {
				fetcher.Window7Days:    record("bar", fetcher.Window7Days, 50, 3),
				fetcher.WindowLastYear: record("bar", fetcher.WindowLastYear, 40, 200),
			},
		},
		historyErr: map[string]map[string]error{
			"bar": {
				fetcher.WindowLastMonth: errors.New("boom"),
			},
		},
	}
	store := newFakeStore()
	p := New(source, source, store, 1, noopLogger())

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := store.appended["streamer_bar"]
	if len(rows) != 2 {
		t.Fatalf("failed window must not block the others, got %v", rows)
	}
	for _, row := range rows {
		if row.Period == fetcher.WindowLastMonth {
			t.Fatal("failed window must not be persisted")
		}
	}
	if summary.Records != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunStreamerWithNoHistoryStillGetsTable(t *testing.T) {
	source := &fakeSource{ranking: []string{"quiet"}}
	store := newFakeStore()
	p := New(source, source, store, 1, noopLogger())

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.ensured) != 1 || store.ensured[0] != "quiet" {
		t.Fatalf("schema must be ensured even with no history, got %v", store.ensured)
	}
	if len(store.appended) != 0 {
		t.Fatalf("no rows expected, got %v", store.appended)
	}
	if summary.Records != 0 || summary.Inserted != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
