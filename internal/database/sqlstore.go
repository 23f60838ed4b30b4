package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/tejusbharadwaj/hydrotel/internal/resample"
)

// SQLStore implements TabularStore over database/sql via sqlx.
//
// Identifiers are written unquoted, so table and column names are matched
// case-insensitively by Postgres and MySQL. Placeholders are rebound to the
// driver's bind style ("postgres" and "pgx" use $n, "mysql" uses ?).
type SQLStore struct {
	db *sqlx.DB
}

// Open connects to the database and verifies connectivity.
func Open(ctx context.Context, driver, dsn string, maxConnections int) (*SQLStore, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if maxConnections > 0 {
		db.SetMaxOpenConns(maxConnections)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	return &SQLStore{db: db}, nil
}

// NewSQLStore wraps an existing connection.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// ReadRows implements TabularStore.
func (s *SQLStore) ReadRows(ctx context.Context, table string, columns []string, filter Filter) ([]Row, error) {
	selected := "*"
	if len(columns) > 0 {
		selected = strings.Join(columns, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", selected, table)

	args := make([]any, 0, len(filter))
	for i, cond := range filter {
		if len(cond.Values) == 0 {
			return []Row{}, nil
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		column := cond.Column
		if cond.FoldCase {
			column = "LOWER(" + column + ")"
		}
		fmt.Fprintf(&b, "%s IN (?)", column)
		args = append(args, cond.Values)
	}

	query := b.String()
	if len(args) > 0 {
		var err error
		query, args, err = sqlx.In(query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to expand filter on %s: %w", table, err)
		}
	}

	return s.query(ctx, s.db.Rebind(query), args...)
}

// ReadRaw implements TabularStore.
func (s *SQLStore) ReadRaw(ctx context.Context, statement string) ([]Row, error) {
	return s.query(ctx, statement)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	results := make([]Row, 0)
	for rows.Next() {
		m := make(map[string]any)
		if err := rows.MapScan(m); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, NewRow(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	return results, nil
}

// ReadTimeSeries implements TabularStore. Raw samples are read ordered by
// key and time, null values are skipped, and the result is resampled in
// process so bucket boundaries do not depend on the SQL dialect.
func (s *SQLStore) ReadTimeSeries(ctx context.Context, q TimeSeriesQuery) ([]resample.Sample, error) {
	if err := q.Options().Validate(); err != nil {
		return nil, err
	}
	if len(q.Keys) == 0 {
		return []resample.Sample{}, nil
	}

	query := fmt.Sprintf("SELECT %s, %s, %s FROM %s WHERE %s IN (?)",
		q.KeyColumn, q.TimeColumn, q.ValueColumn, q.Table, q.KeyColumn)
	args := []any{q.Keys}
	if q.From != nil {
		query += fmt.Sprintf(" AND %s >= ?", q.TimeColumn)
		args = append(args, *q.From)
	}
	if q.To != nil {
		query += fmt.Sprintf(" AND %s <= ?", q.TimeColumn)
		args = append(args, *q.To)
	}
	query += fmt.Sprintf(" ORDER BY %s, %s", q.KeyColumn, q.TimeColumn)

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to expand keys: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("time series query failed: %w", err)
	}
	defer rows.Close()

	var samples []resample.Sample
	for rows.Next() {
		var (
			key   int64
			at    time.Time
			value sql.NullFloat64
		)
		if err := rows.Scan(&key, &at, &value); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		if !value.Valid {
			continue
		}
		samples = append(samples, resample.Sample{Key: key, Time: at, Value: value.Float64})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sample iteration failed: %w", err)
	}

	return resample.Resample(samples, q.Options())
}

// WriteRows implements TabularStore. All rows are inserted in a single
// transaction; either every row is written or none.
func (s *SQLStore) WriteRows(ctx context.Context, table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // rollback if not committed

	stmts := make(map[string]*sqlx.Stmt)
	defer func() {
		for _, stmt := range stmts {
			stmt.Close()
		}
	}()

	for _, row := range rows {
		columns := make([]string, 0, len(row))
		for col := range row {
			columns = append(columns, col)
		}
		sort.Strings(columns)

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table,
			strings.Join(columns, ", "),
			strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
		)

		stmt, ok := stmts[query]
		if !ok {
			stmt, err = tx.PreparexContext(ctx, tx.Rebind(query))
			if err != nil {
				return fmt.Errorf("failed to prepare statement: %w", err)
			}
			stmts[query] = stmt
		}

		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = row[col]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DB exposes the underlying connection for schema management.
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

// Ping verifies the connection is still alive.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases all database resources.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Compile-time interface implementation check
var _ TabularStore = (*SQLStore)(nil)
