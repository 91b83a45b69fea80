package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"streamer-stats/internal/normalize"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	// Table identifiers are derived from channel names returned by an
	// external API, so they are always sanitised before interpolation.
	createTableSQL = `CREATE TABLE IF NOT EXISTS %s (
        date TEXT PRIMARY KEY,
        average_viewers INTEGER,
        stream_days INTEGER
    );`

	insertRowSQL = `INSERT INTO %s (date, average_viewers, stream_days)
    VALUES ($1, $2, $3)
    ON CONFLICT (date) DO NOTHING;`

	listRowsSQL = `SELECT date, average_viewers, stream_days FROM %s ORDER BY date;`

	randomRowSQL = `SELECT date, average_viewers, stream_days FROM %s ORDER BY RANDOM() LIMIT 1;`

	hasRowSQL = `SELECT 1 FROM %s
    WHERE date = $1
      AND average_viewers IS NOT DISTINCT FROM $2
      AND stream_days IS NOT DISTINCT FROM $3;`
)

// StreamerStore defines the operations the ingestion pipeline needs.
type StreamerStore interface {
	EnsureTables(ctx context.Context, entityKeys []string) error
	AppendRows(ctx context.Context, tableName string, rows []normalize.Row) (int, error)
}

// Store persists per-streamer history tables in PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool, logger zerolog.Logger) *Store {
	return &Store{pool: pool, logger: logger.With().Str("component", "storage").Logger()}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return conn, nil
}

// EnsureTables idempotently creates one table per streamer. A failure to
// create one table is logged and does not block the remaining tables.
func (s *Store) EnsureTables(ctx context.Context, entityKeys []string) error {
	conn, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	for _, key := range entityKeys {
		table := normalize.TableName(key)
		stmt := fmt.Sprintf(createTableSQL, pgx.Identifier{table}.Sanitize())
		if _, err := conn.Exec(ctx, stmt); err != nil {
			s.logger.Error().Err(err).Str("table", table).Msg("failed to ensure streamer table")
		}
	}
	return nil
}

// AppendRows inserts rows that are not yet present, keyed by period label.
// Existing rows are never overwritten. A failed insert is logged and the
// batch continues; the returned count covers rows actually written.
func (s *Store) AppendRows(ctx context.Context, tableName string, rows []normalize.Row) (int, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	stmt := fmt.Sprintf(insertRowSQL, pgx.Identifier{tableName}.Sanitize())

	inserted := 0
	for _, row := range rows {
		tag, execErr := conn.Exec(ctx, stmt, row.Period, row.AverageViewers, row.StreamDays)
		if execErr != nil {
			s.logger.Error().Err(execErr).
				Str("table", tableName).
				Str("period", row.Period).
				Msg("failed to insert history row")
			continue
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// ListRows returns every stored row of one streamer table ordered by period.
func (s *Store) ListRows(ctx context.Context, tableName string) ([]normalize.Row, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	stmt := fmt.Sprintf(listRowsSQL, pgx.Identifier{tableName}.Sanitize())
	rows, queryErr := conn.Query(ctx, stmt)
	if queryErr != nil {
		return nil, fmt.Errorf("list rows from %s: %w", tableName, queryErr)
	}
	defer rows.Close()

	result := make([]normalize.Row, 0)
	for rows.Next() {
		row, scanErr := scanRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		result = append(result, row)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return result, nil
}

// RandomRow samples one stored row, or returns nil for an empty table.
func (s *Store) RandomRow(ctx context.Context, tableName string) (*normalize.Row, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	stmt := fmt.Sprintf(randomRowSQL, pgx.Identifier{tableName}.Sanitize())
	rows, queryErr := conn.Query(ctx, stmt)
	if queryErr != nil {
		return nil, fmt.Errorf("sample row from %s: %w", tableName, queryErr)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	row, scanErr := scanRow(rows)
	if scanErr != nil {
		return nil, scanErr
	}
	return &row, nil
}

// HasRow reports whether the exact row is present in the table.
func (s *Store) HasRow(ctx context.Context, tableName string, row normalize.Row) (bool, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	stmt := fmt.Sprintf(hasRowSQL, pgx.Identifier{tableName}.Sanitize())

	var one int
	scanErr := conn.QueryRow(ctx, stmt, row.Period, row.AverageViewers, row.StreamDays).Scan(&one)
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return false, nil
	}
	if scanErr != nil {
		return false, fmt.Errorf("check row in %s: %w", tableName, scanErr)
	}
	return true, nil
}

func scanRow(rows pgx.Rows) (normalize.Row, error) {
	var (
		period     string
		avgViewers sql.NullInt64
		streamDays sql.NullInt64
	)
	if err := rows.Scan(&period, &avgViewers, &streamDays); err != nil {
		return normalize.Row{}, err
	}

	row := normalize.Row{Period: period}
	if avgViewers.Valid {
		v := int(avgViewers.Int64)
		row.AverageViewers = &v
	}
	if streamDays.Valid {
		v := int(streamDays.Int64)
		row.StreamDays = &v
	}
	return row, nil
}

var _ StreamerStore = (*Store)(nil)
