package datastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// MockExecutor serves canned rows without a database. Fixtures map a
// statement substring (usually the table name) to the rows returned for
// any statement containing it. Used for demos and the CLI's mock mode.
//
// The web server shares one executor across concurrent requests, so the
// fixture table loads exactly once and is read-only afterwards.
type MockExecutor struct {
	dataPath string

	loadOnce sync.Once
	loadErr  error
	fixtures map[string][]map[string]any
	keys     []string // fixture keys, sorted, so multi-key matches are deterministic
}

// NewMockExecutor creates a mock executor rooted at dataPath. Fixtures
// load from <dataPath>/query_fixtures.json on first query; a missing
// file just means every query returns no rows.
func NewMockExecutor(dataPath string) *MockExecutor {
	return &MockExecutor{dataPath: dataPath}
}

// WithFixtures pre-populates the fixture table instead of reading a
// file. Handy in tests. Must be called before the first Query.
func (e *MockExecutor) WithFixtures(fixtures map[string][]map[string]any) *MockExecutor {
	e.loadOnce.Do(func() {
		e.setFixtures(fixtures)
	})
	return e
}

// Query returns the rows of the first fixture whose key occurs in the
// statement, trying keys in sorted order.
func (e *MockExecutor) Query(ctx context.Context, statement string, args map[string]any) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.loadOnce.Do(e.loadFixtures)
	if e.loadErr != nil {
		return nil, e.loadErr
	}

	for _, key := range e.keys {
		if strings.Contains(statement, key) {
			return e.fixtures[key], nil
		}
	}
	return []map[string]any{}, nil
}

// Close is a no-op for the file-backed executor.
func (e *MockExecutor) Close() error {
	return nil
}

func (e *MockExecutor) loadFixtures() {
	fixtures := make(map[string][]map[string]any)

	path := filepath.Join(e.dataPath, "query_fixtures.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			e.loadErr = fmt.Errorf("failed to read query fixtures %s: %w", path, err)
		}
		e.setFixtures(fixtures)
		return
	}
	if err := json.Unmarshal(data, &fixtures); err != nil {
		e.loadErr = fmt.Errorf("failed to parse query fixtures %s: %w", path, err)
	}
	e.setFixtures(fixtures)
}

func (e *MockExecutor) setFixtures(fixtures map[string][]map[string]any) {
	e.fixtures = fixtures
	e.keys = make([]string, 0, len(fixtures))
	for key := range fixtures {
		e.keys = append(e.keys, key)
	}
	sort.Strings(e.keys)
}
