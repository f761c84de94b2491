// Package datastore provides the query execution boundary. The engine
// hands over a rendered statement with named bind values and receives
// row maps back; it knows nothing about the storage engine behind it.
package datastore

import "context"

// Executor runs one rendered, parameter-bound statement and returns the
// result rows. Implementations must bind values through the driver, never
// by splicing them into the statement text.
type Executor interface {
	Query(ctx context.Context, statement string, args map[string]any) ([]map[string]any, error)
	Close() error
}

// Type selects the backing implementation.
type Type string

const (
	// PostgreSQLStore executes against a real PostgreSQL database.
	PostgreSQLStore Type = "postgresql"
	// MockStore serves canned rows from JSON fixtures.
	MockStore Type = "mock"
)

// Config holds configuration for executor creation.
type Config struct {
	Type             Type
	ConnectionString string
	MockDataPath     string
}

// NewExecutor creates an executor based on configuration.
func NewExecutor(config Config) (Executor, error) {
	switch config.Type {
	case PostgreSQLStore:
		return NewPostgresExecutor(config.ConnectionString)
	case MockStore:
		return NewMockExecutor(config.MockDataPath), nil
	default:
		return nil, &UnsupportedStoreTypeError{Type: string(config.Type)}
	}
}

// UnsupportedStoreTypeError is returned when an unsupported store type is requested
type UnsupportedStoreTypeError struct {
	Type string
}

func (e *UnsupportedStoreTypeError) Error() string {
	return "unsupported store type: " + e.Type
}
