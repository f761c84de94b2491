package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// MockSource serves rules from a JSON fixture file so the engine can run
// without a database. Falls back to the built-in seed rules when no
// fixture file exists under the configured path.
type MockSource struct {
	dataPath string
}

// NewMockSource creates a mock rule source rooted at dataPath.
func NewMockSource(dataPath string) *MockSource {
	return &MockSource{dataPath: dataPath}
}

// LoadRules reads <dataPath>/intent_rules.json, or returns the seed rule
// set when the file is absent.
func (m *MockSource) LoadRules(ctx context.Context) ([]IntentRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(m.dataPath, "intent_rules.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return SeedRules(), nil
		}
		return nil, fmt.Errorf("failed to read mock rules %s: %w", path, err)
	}

	var rules []IntentRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse mock rules %s: %w", path, err)
	}
	return rules, nil
}

// Close is a no-op for the file-backed source.
func (m *MockSource) Close() error {
	return nil
}
