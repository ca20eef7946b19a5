// Package engine wraps an in-memory DuckDB connection behind the narrow
// contracts the planner core depends on: describe a dataset's schema and
// execute a parameterized query into a tabular Result.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/duckdb/duckdb-go/v2"

	"duck-agent/internal/domain"
)

// Engine executes queries against an in-memory DuckDB. Datasets are
// parquet files referenced by path at query time; nothing is loaded into
// the database itself.
type Engine struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates an in-memory DuckDB engine.
func Open(logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Engine{db: db, logger: logger}, nil
}

// Close releases the underlying connection.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Query executes a parameterized statement and scans the full result set.
func (e *Engine) Query(ctx context.Context, sqlText string, params []interface{}) (*domain.Result, error) {
	rows, err := e.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	result, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("scan results: %w", err)
	}
	e.logger.Debug("query completed", "row_count", result.RowCount)
	return result, nil
}

// Describe reflects a dataset's projection schema by describing a
// zero-row read of the parquet file.
func (e *Engine) Describe(ctx context.Context, datasetPath string) ([]domain.ColumnInfo, error) {
	res, err := e.Query(ctx, "DESCRIBE SELECT * FROM read_parquet(?) LIMIT 0", []interface{}{datasetPath})
	if err != nil {
		return nil, err
	}
	columns := make([]domain.ColumnInfo, 0, res.RowCount)
	for _, row := range res.Rows {
		if len(row) < 2 {
			continue
		}
		name, _ := row[0].(string)
		typeName, _ := row[1].(string)
		if name == "" {
			continue
		}
		columns = append(columns, domain.ColumnInfo{Name: name, Type: typeName})
	}
	return columns, nil
}

// Preview returns the first limit rows of a dataset.
func (e *Engine) Preview(ctx context.Context, datasetPath string, limit int) (*domain.Result, error) {
	return e.Query(ctx, "SELECT * FROM read_parquet(?) LIMIT ?", []interface{}{datasetPath, limit})
}

// scanRows drains a sql.Rows into a Result, normalizing byte slices to
// strings for JSON serialization.
func scanRows(rows *sql.Rows) (*domain.Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var resultRows [][]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]interface{}, len(vals))
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			} else {
				row[i] = v
			}
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.Result{
		Columns:  cols,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}
