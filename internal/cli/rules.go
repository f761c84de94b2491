// Package cli provides the cobra admin commands for rule catalog
// maintenance: seeding the default rule set, validating stored rules, and
// listing what is currently matchable.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"nlq-router/internal/catalog"
	"nlq-router/internal/config"
)

// RulesCommand creates the `rules` command tree.
func RulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the intent rule catalog",
	}

	cmd.AddCommand(rulesSeedCommand())
	cmd.AddCommand(rulesValidateCommand())
	cmd.AddCommand(rulesListCommand())
	cmd.AddCommand(rulesEvalCommand())
	return cmd
}

func rulesSeedCommand() *cobra.Command {
	var dbConnStr string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the default inspection-domain rule set",
		Long: `Insert the built-in rule set (inventory, lab results, production
tracking, defect rate, greeting) into the intent_rules table. Rules whose
name already exists are skipped, so seeding is safe to repeat.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepository(dbConnStr)
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if err := repo.InitSchema(ctx); err != nil {
				return err
			}

			inserted, err := catalog.Seed(ctx, repo)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d rule(s)\n", inserted)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbConnStr, "db", "", "Database connection string (overrides env var)")
	return cmd
}

func rulesValidateCommand() *cobra.Command {
	var dbConnStr string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run the catalog integrity checks and report faulty rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := openSource(dbConnStr)
			if err != nil {
				return err
			}
			defer source.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			records, err := source.LoadRules(ctx)
			if err != nil {
				return err
			}

			snap := catalog.BuildSnapshot(records)
			fmt.Printf("Loaded %d rule(s): %d matchable, %d rejected\n",
				len(records), len(snap.Rules), len(snap.Rejected))
			for _, fault := range snap.Rejected {
				fmt.Printf("  REJECTED %v\n", fault)
			}
			if len(snap.Rejected) > 0 {
				return fmt.Errorf("%d rule(s) failed validation", len(snap.Rejected))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbConnStr, "db", "", "Database connection string (overrides env var)")
	return cmd
}

func rulesListCommand() *cobra.Command {
	var dbConnStr string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the active, matchable rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := openSource(dbConnStr)
			if err != nil {
				return err
			}
			defer source.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			records, err := source.LoadRules(ctx)
			if err != nil {
				return err
			}

			snap := catalog.BuildSnapshot(records)
			for i := range snap.Rules {
				r := &snap.Rules[i]
				fmt.Printf("%-24s prio=%-3d sort=%-3d %-10s triggers=%v\n",
					r.Name, r.Priority, r.SortOrder, r.ActionType, r.TriggerWords)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbConnStr, "db", "", "Database connection string (overrides env var)")
	return cmd
}

// openSource returns the rule source for the configured store type; mock
// mode works without a database.
func openSource(dbConnStr string) (catalog.Source, error) {
	if config.IsMockMode() {
		return catalog.NewMockSource(config.GetMockDataPath()), nil
	}
	return openRepository(dbConnStr)
}

func openRepository(dbConnStr string) (*catalog.PostgresRepository, error) {
	if dbConnStr == "" {
		dbConnStr = config.GetConnectionString()
	}
	db, err := sqlx.Connect("postgres", dbConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return catalog.NewPostgresRepository(db), nil
}
