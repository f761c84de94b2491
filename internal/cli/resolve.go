package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"nlq-router/internal/agent"
	"nlq-router/internal/catalog"
	"nlq-router/internal/config"
	"nlq-router/internal/datastore"
	"nlq-router/internal/engine"
)

// BuildResolver wires a resolver from the configured store type. The
// returned cleanup func closes the catalog source and the executor.
func BuildResolver() (*engine.Resolver, func(), error) {
	cfg := config.GetDataStoreConfig()

	switch cfg.Type {
	case datastore.MockStore:
		source := catalog.NewMockSource(cfg.MockDataPath)
		exec := datastore.NewMockExecutor(cfg.MockDataPath)
		cache := catalog.NewCache(source)
		cleanup := func() {
			cache.Close()
			exec.Close()
		}
		return engine.NewResolver(cache, exec), cleanup, nil

	case datastore.PostgreSQLStore:
		db, err := sqlx.Connect("postgres", cfg.ConnectionString)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		// Rules and queried data share one database in this deployment,
		// so the repository and the executor share the connection pool.
		source := catalog.NewPostgresRepository(db)
		exec := datastore.NewPostgresExecutorFromDB(db)
		cache := catalog.NewCache(source)
		cleanup := func() { db.Close() }
		return engine.NewResolver(cache, exec), cleanup, nil

	default:
		return nil, nil, &datastore.UnsupportedStoreTypeError{Type: string(cfg.Type)}
	}
}

// RunResolve resolves one query from the command line and prints the
// outcome. With --diag it also dumps the full diagnostics as JSON. When a
// fallback agent is available it upgrades NO_MATCH / NEEDS_CLARIFICATION
// answers.
func RunResolve(ctx context.Context, resolver *engine.Resolver, fallback *agent.FallbackAgent, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: resolve \"<query text>\" [--diag]")
	}
	query := args[0]
	showDiag := len(args) > 1 && args[1] == "--diag"

	res := resolver.Resolve(ctx, query)

	text := res.Text
	if fallback != nil && (res.Status == engine.StatusNoMatch || res.Status == engine.StatusNeedsClarification) {
		if answer, err := fallback.Answer(ctx, query, res.Diagnostics); err == nil && answer != "" {
			text = answer
		}
	}

	fmt.Printf("Status: %s\n", res.Status)
	if res.Rule != nil {
		fmt.Printf("Rule:   %s\n", res.Rule.Name)
	}
	if len(res.Parameters) > 0 {
		fmt.Printf("Params: %v\n", res.Parameters)
	}
	fmt.Printf("Answer: %s\n", text)
	for i, row := range res.Rows {
		fmt.Printf("  row %d: %v\n", i+1, row)
	}

	if showDiag {
		blob, err := json.MarshalIndent(res.Diagnostics, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal diagnostics: %w", err)
		}
		fmt.Printf("Diagnostics:\n%s\n", blob)
	}
	return nil
}
