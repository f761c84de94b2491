package cli

import (
	"context"
	"testing"

	"nlq-router/internal/catalog"
	"nlq-router/internal/datastore"
	"nlq-router/internal/engine"
)

func seedResolver(t *testing.T) *engine.Resolver {
	t.Helper()
	cache := catalog.NewCache(catalog.NewMockSource(t.TempDir()))
	exec := datastore.NewMockExecutor("").WithFixtures(map[string][]map[string]any{})
	return engine.NewResolver(cache, exec)
}

func TestRunEvalCaseSeedExamples(t *testing.T) {
	resolver := seedResolver(t)
	ctx := context.Background()

	rules, err := resolver.ListActiveRules(ctx)
	if err != nil {
		t.Fatalf("ListActiveRules returned error: %v", err)
	}
	if len(rules) == 0 {
		t.Fatal("seed catalog should not be empty")
	}

	for i := range rules {
		r := &rules[i]
		if r.ExampleQuery == "" {
			continue
		}
		res := runEvalCase(ctx, resolver, evalCase{
			Name:       r.Name,
			Query:      r.ExampleQuery,
			ExpectRule: r.Name,
		})
		if !res.Passed {
			t.Errorf("example query for %s failed: %s", r.Name, res.Error)
		}
	}
}

func TestRunEvalCaseWrongRule(t *testing.T) {
	resolver := seedResolver(t)

	res := runEvalCase(context.Background(), resolver, evalCase{
		Name:       "greeting",
		Query:      "查询深圳工厂库存",
		ExpectRule: "greeting",
	})
	if res.Passed {
		t.Fatal("query routed elsewhere should fail the case")
	}
	if res.Error == "" {
		t.Error("failure should carry an explanation")
	}
}

func TestRunEvalCaseSkip(t *testing.T) {
	resolver := seedResolver(t)

	res := runEvalCase(context.Background(), resolver, evalCase{
		Name: "no_example",
		Skip: true,
	})
	if !res.Skipped || res.Passed {
		t.Errorf("skip flag not honored: %+v", res)
	}
}
