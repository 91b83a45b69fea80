package normalize

import (
	"strings"

	"streamer-stats/internal/fetcher"
)

const tablePrefix = "streamer_"

// Row is one canonical history tuple ready for insertion. Nil metric values
// persist as NULL, keeping the upstream notion of "unknown".
type Row struct {
	Period         string
	AverageViewers *int
	StreamDays     *int
}

// TableName derives the storage table for a channel key. The mapping is a
// pure function: lowercase key, fixed prefix. Keys differing only in case
// land in the same table.
func TableName(entityKey string) string {
	return tablePrefix + strings.ToLower(entityKey)
}

// Normalize converts per-streamer history records into per-table row slices.
// Streamers with no records map to empty slices, same as if they were absent:
// either way there is nothing to insert.
func Normalize(history map[string][]fetcher.HistoryRecord) map[string][]Row {
	tables := make(map[string][]Row, len(history))
	for entity, records := range history {
		rows := make([]Row, 0, len(records))
		for _, record := range records {
			rows = append(rows, Row{
				Period:         record.Period,
				AverageViewers: record.AverageViewers,
				StreamDays:     record.StreamDays,
			})
		}
		tables[TableName(entity)] = rows
	}
	return tables
}
