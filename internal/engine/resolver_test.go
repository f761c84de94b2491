package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nlq-router/internal/catalog"
)

// stubSource serves a fixed rule list.
type stubSource struct {
	rules []catalog.IntentRule
	err   error
}

func (s *stubSource) LoadRules(ctx context.Context) ([]catalog.IntentRule, error) {
	return s.rules, s.err
}

func (s *stubSource) Close() error { return nil }

// spyExecutor records dispatch calls and replays configured results.
type spyExecutor struct {
	calls     int
	statement string
	args      map[string]any
	rows      []map[string]any
	err       error
}

func (e *spyExecutor) Query(ctx context.Context, statement string, args map[string]any) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.calls++
	e.statement = statement
	e.args = args
	return e.rows, e.err
}

func (e *spyExecutor) Close() error { return nil }

func inventoryRule() catalog.IntentRule {
	return catalog.IntentRule{
		ID:           "00000000-0000-0000-0000-000000000001",
		Name:         "factory_inventory",
		Category:     "inventory",
		TriggerWords: []string{"工厂", "库存"},
		Parameters: []catalog.ParameterSpec{
			{
				Name:     "factory",
				Required: true,
				Extraction: catalog.Extraction{
					Kind:       catalog.ExtractValueList,
					Candidates: []string{"深圳工厂", "重庆工厂"},
				},
			},
		},
		ActionType:     catalog.ActionQuery,
		ActionTemplate: "SELECT * FROM inventory WHERE factory = :factory",
		Priority:       10,
		SortOrder:      10,
		Status:         catalog.StatusActive,
	}
}

func greetingRule() catalog.IntentRule {
	return catalog.IntentRule{
		ID:             "00000000-0000-0000-0000-000000000005",
		Name:           "greeting",
		TriggerWords:   []string{"你好"},
		ActionType:     catalog.ActionLiteral,
		ActionTemplate: "你好，我是质检数据助手。",
		Priority:       1,
		SortOrder:      90,
		Status:         catalog.StatusActive,
	}
}

func newTestResolver(exec *spyExecutor, rules ...catalog.IntentRule) *Resolver {
	cache := catalog.NewCache(&stubSource{rules: rules})
	return NewResolver(cache, exec)
}

func TestResolveMatchedQueryAction(t *testing.T) {
	exec := &spyExecutor{rows: []map[string]any{
		{"material_code": "M-001", "quantity": int64(120)},
	}}
	resolver := newTestResolver(exec, inventoryRule())

	res := resolver.Resolve(context.Background(), "查询深圳工厂库存")

	assert.Equal(t, StatusMatched, res.Status)
	require.NotNil(t, res.Rule)
	assert.Equal(t, "factory_inventory", res.Rule.Name)
	assert.Equal(t, map[string]string{"factory": "深圳工厂"}, res.Parameters)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "M-001", res.Rows[0]["material_code"])

	assert.Equal(t, 1, exec.calls)
	assert.Equal(t, "SELECT * FROM inventory WHERE factory = :factory", exec.statement)
	assert.Equal(t, map[string]any{"factory": "深圳工厂"}, exec.args)

	assert.Positive(t, res.Diagnostics.Score)
	assert.NotEmpty(t, res.Diagnostics.Candidates)
}

func TestResolveNeedsClarificationSkipsDispatch(t *testing.T) {
	exec := &spyExecutor{}
	resolver := newTestResolver(exec, inventoryRule())

	res := resolver.Resolve(context.Background(), "查询库存")

	assert.Equal(t, StatusNeedsClarification, res.Status)
	assert.Equal(t, []string{"factory"}, res.Diagnostics.MissingParameters)
	assert.Zero(t, exec.calls, "dispatcher must not run without required parameters")
	assert.Nil(t, res.Rows)
	assert.NotEmpty(t, res.Text)
}

func TestResolveNoMatch(t *testing.T) {
	exec := &spyExecutor{}
	resolver := newTestResolver(exec, inventoryRule())

	res := resolver.Resolve(context.Background(), "今天天气如何")

	assert.Equal(t, StatusNoMatch, res.Status)
	assert.Nil(t, res.Rule)
	assert.Zero(t, exec.calls)
	assert.NotEmpty(t, res.Text)
	assert.NotEmpty(t, res.Diagnostics.Candidates, "ranked list reported even without a winner")
}

func TestResolveEmptyInput(t *testing.T) {
	exec := &spyExecutor{}
	resolver := newTestResolver(exec, inventoryRule())

	res := resolver.Resolve(context.Background(), "   ")

	assert.Equal(t, StatusNoMatch, res.Status)
	assert.Empty(t, res.Diagnostics.Tokens)
	assert.Zero(t, exec.calls)
}

func TestResolveLiteralAction(t *testing.T) {
	exec := &spyExecutor{}
	resolver := newTestResolver(exec, inventoryRule(), greetingRule())

	res := resolver.Resolve(context.Background(), "你好")

	assert.Equal(t, StatusMatched, res.Status)
	require.NotNil(t, res.Rule)
	assert.Equal(t, "greeting", res.Rule.Name)
	assert.Equal(t, "你好，我是质检数据助手。", res.Text)
	assert.Zero(t, exec.calls, "literal actions never reach the executor")
}

func TestResolvePriorityBreaksEqualScores(t *testing.T) {
	ruleX := catalog.IntentRule{
		ID: "rx", Name: "rule_x", TriggerWords: []string{"供应商"},
		ActionType: catalog.ActionLiteral, ActionTemplate: "X",
		Priority: 10, SortOrder: 2, Status: catalog.StatusActive,
	}
	ruleY := catalog.IntentRule{
		ID: "ry", Name: "rule_y", TriggerWords: []string{"供应商"},
		ActionType: catalog.ActionLiteral, ActionTemplate: "Y",
		Priority: 5, SortOrder: 1, Status: catalog.StatusActive,
	}
	resolver := newTestResolver(&spyExecutor{}, ruleX, ruleY)

	res := resolver.Resolve(context.Background(), "查询供应商")

	require.NotNil(t, res.Rule)
	assert.Equal(t, "rule_x", res.Rule.Name)
}

func TestResolveExecutionFailureSurfaces(t *testing.T) {
	exec := &spyExecutor{err: errors.New("relation inventory does not exist")}
	resolver := newTestResolver(exec, inventoryRule())

	res := resolver.Resolve(context.Background(), "查询深圳工厂库存")

	assert.Equal(t, StatusExecutionError, res.Status)
	assert.Contains(t, res.Diagnostics.ExecutionError, "relation inventory does not exist")
	assert.NotContains(t, res.Text, "relation", "execution detail never leaks into user text")
	assert.Equal(t, 1, exec.calls, "no retry after a failure")
}

func TestResolveCancellation(t *testing.T) {
	exec := &spyExecutor{}
	resolver := newTestResolver(exec, inventoryRule())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := resolver.Resolve(ctx, "查询深圳工厂库存")

	assert.Equal(t, StatusExecutionError, res.Status)
	assert.Contains(t, res.Diagnostics.ExecutionError, "canceled")
}

func TestResolveIdempotent(t *testing.T) {
	exec := &spyExecutor{rows: []map[string]any{{"quantity": int64(1)}}}
	resolver := newTestResolver(exec, inventoryRule(), greetingRule())

	first := resolver.Resolve(context.Background(), "查询深圳工厂库存")
	second := resolver.Resolve(context.Background(), "查询深圳工厂库存")

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Rule.Name, second.Rule.Name)
	assert.Equal(t, first.Parameters, second.Parameters)
	assert.Equal(t, first.Diagnostics.Candidates, second.Diagnostics.Candidates)
}

func TestResolveSeededCarryOver(t *testing.T) {
	exec := &spyExecutor{}
	resolver := newTestResolver(exec, inventoryRule())

	res := resolver.ResolveSeeded(context.Background(), "那库存呢",
		map[string]string{"factory": "重庆工厂"})

	assert.Equal(t, StatusMatched, res.Status)
	assert.Equal(t, "重庆工厂", res.Parameters["factory"])
}

func TestResolveInvalidRuleNeverDispatched(t *testing.T) {
	broken := catalog.IntentRule{
		ID: "rb", Name: "broken_rule", TriggerWords: []string{"库存"},
		ActionType: catalog.ActionQuery, ActionTemplate: "",
		Priority: 100, Status: catalog.StatusActive,
	}
	exec := &spyExecutor{}
	resolver := newTestResolver(exec, broken, greetingRule())

	res := resolver.Resolve(context.Background(), "查询库存")

	// The broken rule was rejected at load time, so nothing matches.
	assert.Equal(t, StatusNoMatch, res.Status)
	assert.Zero(t, exec.calls)
}

func TestListActiveRules(t *testing.T) {
	resolver := newTestResolver(&spyExecutor{}, inventoryRule(), greetingRule())

	rules, err := resolver.ListActiveRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "factory_inventory", rules[0].Name, "ordered by sort order")
	assert.Equal(t, "greeting", rules[1].Name)
}
