package scan

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/artie-labs/sifter/lib/utils"
)

const (
	jitterBaseMs = 300
	jitterMaxMs  = 5000
)

type ScannerConfig struct {
	// Schema is optional, MySQL tables are addressed by name only.
	Schema       string
	Table        string
	PrimaryKeys  []string
	BatchSize    uint
	ErrorRetries int
}

type Dialect interface {
	QuoteIdentifier(name string) string
	// Placeholder returns the bind parameter for the zero-based index.
	Placeholder(index int) string
	// ParseValue converts a scanned value using the column's database type name.
	ParseValue(value any, databaseTypeName string) any
}

// Scanner reads a table in primary key order, one batch at a time, using keyset pagination.
type Scanner struct {
	// immutable
	ctx     context.Context
	db      *sql.DB
	cfg     ScannerConfig
	dialect Dialect

	// mutable
	lastValues []any
	done       bool
}

func NewScanner(ctx context.Context, db *sql.DB, cfg ScannerConfig, dialect Dialect) (*Scanner, error) {
	if len(cfg.PrimaryKeys) == 0 {
		return nil, fmt.Errorf("primary keys cannot be empty")
	}

	if cfg.BatchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than 0")
	}

	return &Scanner{
		ctx:     ctx,
		db:      db,
		cfg:     cfg,
		dialect: dialect,
	}, nil
}

func (s *Scanner) HasNext() bool {
	return !s.done
}

func (s *Scanner) Next() ([]map[string]any, error) {
	if !s.HasNext() {
		return nil, fmt.Errorf("no more rows to scan")
	}

	rows, err := s.scan()
	if err != nil {
		s.done = true
		return nil, err
	}

	if uint(len(rows)) < s.cfg.BatchSize {
		s.done = true
	}

	if len(rows) > 0 {
		// Update the starting keys so that the next scan will pick off where we last left off.
		lastValues, err := primaryKeyValues(rows[len(rows)-1], s.cfg.PrimaryKeys)
		if err != nil {
			s.done = true
			return nil, err
		}
		s.lastValues = lastValues
	}

	return rows, nil
}

func primaryKeyValues(row map[string]any, primaryKeys []string) ([]any, error) {
	values := make([]any, len(primaryKeys))
	for i, key := range primaryKeys {
		value, ok := row[key]
		if !ok {
			return nil, fmt.Errorf("primary key %q is missing from row", key)
		}
		values[i] = value
	}
	return values, nil
}

func (s *Scanner) tableName() string {
	if s.cfg.Schema == "" {
		return s.dialect.QuoteIdentifier(s.cfg.Table)
	}
	return fmt.Sprintf("%s.%s", s.dialect.QuoteIdentifier(s.cfg.Schema), s.dialect.QuoteIdentifier(s.cfg.Table))
}

// BuildQuery returns the query for the next batch. The first batch has no lower bound, every
// following batch starts strictly after the last primary key seen.
func (s *Scanner) BuildQuery() (string, []any) {
	quotedKeys := make([]string, len(s.cfg.PrimaryKeys))
	for i, key := range s.cfg.PrimaryKeys {
		quotedKeys[i] = s.dialect.QuoteIdentifier(key)
	}

	var where string
	if s.lastValues != nil {
		placeholders := make([]string, len(s.lastValues))
		for i := range s.lastValues {
			placeholders[i] = s.dialect.Placeholder(i)
		}
		where = fmt.Sprintf(" WHERE (%s) > (%s)", strings.Join(quotedKeys, ","), strings.Join(placeholders, ","))
	}

	query := fmt.Sprintf("SELECT * FROM %s%s ORDER BY %s LIMIT %d",
		s.tableName(),
		where,
		strings.Join(quotedKeys, ","),
		s.cfg.BatchSize,
	)
	return query, s.lastValues
}

func (s *Scanner) scan() ([]map[string]any, error) {
	query, parameters := s.BuildQuery()
	slog.Info("Scan query", slog.String("query", query), slog.Any("parameters", parameters))

	rows, err := utils.WithJitteredRetries(s.ctx, jitterBaseMs, jitterMaxMs, s.cfg.ErrorRetries, utils.AlwaysRetry, func(_ int) (*sql.Rows, error) {
		return s.db.QueryContext(s.ctx, query, parameters...)
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	values := make([]any, len(columnTypes))
	valuePtrs := make([]any, len(values))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	var rowsData []map[string]any
	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columnTypes))
		for i, columnType := range columnTypes {
			row[columnType.Name()] = s.dialect.ParseValue(values[i], columnType.DatabaseTypeName())
		}
		rowsData = append(rowsData, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}

	return rowsData, nil
}
