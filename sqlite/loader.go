// Package sqlite reads record snapshots out of a SQLite database so they can
// be handed to the computation units. It never writes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/asaidimu/go-sieve/core/record"
	"github.com/bytedance/sonic"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// DriverName is the database/sql driver registered by go-sqlite3.
const DriverName = "sqlite3"

// querier abstracts the read methods shared by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Loader reads tables and queries into records.
type Loader struct {
	db     querier
	logger *zap.Logger
}

// NewLoader creates a Loader over db, which may be a *sql.DB or a *sql.Tx.
func NewLoader(db querier, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{db: db, logger: logger}
}

// Open opens a SQLite database by DSN, e.g. ":memory:" or "file:rows.db".
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}
	return db, nil
}

// LoadRecords reads every row of table.
func (l *Loader) LoadRecords(ctx context.Context, table string) ([]record.Record, error) {
	return l.LoadQuery(ctx, "SELECT * FROM "+quoteIdentifier(table))
}

// LoadQuery runs a SELECT and reads every resulting row.
func (l *Loader) LoadQuery(ctx context.Context, query string, args ...any) ([]record.Record, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	records, err := readRows(l.logger, rows)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Loaded records", zap.Int("count", len(records)))
	return records, nil
}

// readRows converts rows into records, using the declared column type to
// pick the Go representation of each value.
func readRows(logger *zap.Logger, rows *sql.Rows) ([]record.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	results := []record.Record{}
	for rows.Next() {
		row := make(record.Record, len(columns))
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}

		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, col := range columns {
			row[col] = convert(logger, col, strings.ToUpper(types[i].DatabaseTypeName()), values[i])
		}
		results = append(results, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return results, nil
}

func convert(logger *zap.Logger, col, declared string, val any) any {
	if val == nil {
		return nil
	}

	switch {
	case declared == "BOOLEAN" || declared == "BOOL":
		if intVal, isInt := val.(int64); isInt {
			return intVal != 0
		}
	case declared == "JSON":
		var byteVal []byte
		if b, ok := val.([]byte); ok {
			byteVal = b
		} else if s, ok := val.(string); ok {
			byteVal = []byte(s)
		}
		if byteVal != nil {
			var decoded any
			if err := sonic.Unmarshal(byteVal, &decoded); err == nil {
				return decoded
			}
			logger.Warn("Column is not valid JSON, using raw value", zap.String("column", col))
		}
	case declared == "BLOB":
		return val
	}

	if byteVal, isByte := val.([]byte); isByte {
		return string(byteVal)
	}
	return val
}

// quoteIdentifier properly quotes an identifier for SQLite.
func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
