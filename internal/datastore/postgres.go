package datastore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresExecutor executes rendered statements against PostgreSQL via
// sqlx named-parameter binding.
type PostgresExecutor struct {
	db *sqlx.DB
}

// NewPostgresExecutor connects to the database and verifies the connection.
func NewPostgresExecutor(connectionString string) (*PostgresExecutor, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &PostgresExecutor{db: db}, nil
}

// NewPostgresExecutorFromDB wraps an existing connection. Used when the
// rule catalog and the queried data share one database.
func NewPostgresExecutorFromDB(db *sqlx.DB) *PostgresExecutor {
	return &PostgresExecutor{db: db}
}

// Query binds args into the named statement and returns the rows as maps.
// Values travel through driver placeholders; the statement text is never
// touched by the values themselves.
func (e *PostgresExecutor) Query(ctx context.Context, statement string, args map[string]any) ([]map[string]any, error) {
	bound, positional, err := sqlx.Named(statement, args)
	if err != nil {
		return nil, fmt.Errorf("failed to bind statement parameters: %w", err)
	}
	bound = e.db.Rebind(bound)

	rows, err := e.db.QueryxContext(ctx, bound, positional...)
	if err != nil {
		return nil, describeQueryError(err)
	}
	defer rows.Close()

	results := make([]map[string]any, 0)
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		// lib/pq hands text columns back as []byte in MapScan rows.
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("result iteration failed: %w", err)
	}

	return results, nil
}

// Close releases the underlying database handle.
func (e *PostgresExecutor) Close() error {
	return e.db.Close()
}

func describeQueryError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("query execution failed (%s): %w", pqErr.Code.Name(), err)
	}
	return fmt.Errorf("query execution failed: %w", err)
}
