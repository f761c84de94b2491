package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"nlq-router/internal/engine"
)

// evalCase replays one query through the resolver and checks which rule
// won. Cases come from the catalog itself: every active rule's example
// query must resolve back to that rule.
type evalCase struct {
	Name       string
	Query      string
	ExpectRule string
	Skip       bool
	SkipReason string
}

type evalResult struct {
	Case     string
	Passed   bool
	Skipped  bool
	Duration time.Duration
	Error    string
}

func rulesEvalCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Replay every rule's example query and verify it still wins",
		Long: `Build the resolver against the configured store, then resolve each
active rule's example query and check that the rule it belongs to wins
the match. Catches catalog edits that silently break routing, such as a
new rule stealing another rule's queries.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, cleanup, err := BuildResolver()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			rules, err := resolver.ListActiveRules(ctx)
			if err != nil {
				return err
			}

			cases := make([]evalCase, 0, len(rules))
			for i := range rules {
				r := &rules[i]
				c := evalCase{Name: r.Name, Query: r.ExampleQuery, ExpectRule: r.Name}
				if r.ExampleQuery == "" {
					c.Skip = true
					c.SkipReason = "no example query"
				}
				cases = append(cases, c)
			}

			passed, failed, skipped := 0, 0, 0
			for _, c := range cases {
				res := runEvalCase(ctx, resolver, c)
				switch {
				case res.Skipped:
					skipped++
					if verbose {
						fmt.Printf("SKIP %-24s %s\n", res.Case, c.SkipReason)
					}
				case res.Passed:
					passed++
					if verbose {
						fmt.Printf("PASS %-24s %s (%v)\n", res.Case, c.Query, res.Duration)
					}
				default:
					failed++
					fmt.Printf("FAIL %-24s %s: %s\n", res.Case, c.Query, res.Error)
				}
			}

			fmt.Printf("%d passed, %d failed, %d skipped\n", passed, failed, skipped)
			if failed > 0 {
				return fmt.Errorf("%d example queries no longer route correctly", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Print every case, not just failures")
	return cmd
}

func runEvalCase(ctx context.Context, resolver *engine.Resolver, c evalCase) evalResult {
	result := evalResult{Case: c.Name}
	if c.Skip {
		result.Skipped = true
		return result
	}

	start := time.Now()
	res := resolver.Resolve(ctx, c.Query)
	result.Duration = time.Since(start)

	if res.Rule == nil {
		result.Error = fmt.Sprintf("no rule matched (status %s)", res.Status)
		return result
	}
	if res.Rule.Name != c.ExpectRule {
		result.Error = fmt.Sprintf("resolved to %s instead", res.Rule.Name)
		return result
	}
	if res.Status == engine.StatusNeedsClarification {
		result.Error = fmt.Sprintf("example query is missing its own parameters: %v",
			res.Diagnostics.MissingParameters)
		return result
	}

	result.Passed = true
	return result
}
