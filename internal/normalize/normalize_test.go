package normalize

import (
	"testing"

	"streamer-stats/internal/fetcher"
)

func intPtr(v int) *int { return &v }

func TestTableNameIsPureAndLowercased(t *testing.T) {
	if got := TableName("foo"); got != "streamer_foo" {
		t.Fatalf("expected streamer_foo, got %s", got)
	}
	if TableName("Foo") != TableName("foo") {
		t.Fatal("table name must be deterministic over case")
	}
	// Keys differing only in case collide into one table. Inherited
	// behaviour, documented rather than fixed.
	if TableName("XQC") != "streamer_xqc" {
		t.Fatalf("expected streamer_xqc, got %s", TableName("XQC"))
	}
}

func TestNormalizeBuildsRows(t *testing.T) {
	history := map[string][]fetcher.HistoryRecord{
		"Foo": {
			{EntityKey: "Foo", Period: fetcher.Window7Days, AverageViewers: intPtr(120), StreamDays: intPtr(5)},
			{EntityKey: "Foo", Period: fetcher.WindowLastMonth, AverageViewers: intPtr(90), StreamDays: intPtr(20)},
		},
	}

	tables := Normalize(history)

	rows, ok := tables["streamer_foo"]
	if !ok {
		t.Fatalf("expected streamer_foo table, got %v", tables)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Period != fetcher.Window7Days || *rows[0].AverageViewers != 120 || *rows[0].StreamDays != 5 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
}

func TestNormalizePreservesAbsentMetrics(t *testing.T) {
	history := map[string][]fetcher.HistoryRecord{
		"foo": {
			{EntityKey: "foo", Period: fetcher.WindowLastYear, AverageViewers: intPtr(7)},
		},
	}

	rows := Normalize(history)["streamer_foo"]
	if rows[0].StreamDays != nil {
		t.Fatal("absent stream_days must stay nil through normalization")
	}
}

func TestNormalizeKeepsEmptyEntities(t *testing.T) {
	history := map[string][]fetcher.HistoryRecord{
		"quiet": {},
	}

	tables := Normalize(history)
	rows, ok := tables["streamer_quiet"]
	if !ok {
		t.Fatal("entity with no records must still map to its table")
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}
