package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"nlq-router/internal/catalog"
	"nlq-router/internal/datastore"
)

// User-facing fallback text. Execution detail never appears here; it goes
// to diagnostics only.
const (
	noMatchText      = "抱歉，我还不理解这个问题。可以换个说法，或者问我库存、检测结果、生产进度等数据。"
	executionErrText = "抱歉，查询执行出现了问题，请稍后再试。"
)

// Resolver composes the pipeline into the single resolve entry point.
// It is stateless across calls and safe for concurrent use; the only
// blocking stage is the executor dispatch, which honors ctx cancellation.
type Resolver struct {
	rules *catalog.Cache
	exec  datastore.Executor
}

// NewResolver creates a resolver over a rule catalog cache and a query
// execution capability.
func NewResolver(rules *catalog.Cache, exec datastore.Executor) *Resolver {
	return &Resolver{rules: rules, exec: exec}
}

// Resolve routes one raw query through tokenize, match, extract, render
// and dispatch. Every failure mode folds into the returned Resolution;
// Resolve never panics and never returns a partial execution.
func (r *Resolver) Resolve(ctx context.Context, rawText string) *Resolution {
	return r.ResolveSeeded(ctx, rawText, nil)
}

// ResolveSeeded is Resolve with conversation carry-over: seed values fill
// parameters that normal extraction cannot, letting follow-up queries
// reuse earlier context. A nil seed behaves exactly like Resolve.
func (r *Resolver) ResolveSeeded(ctx context.Context, rawText string, seed map[string]string) *Resolution {
	rawText = strings.TrimSpace(rawText)
	res := &Resolution{Status: StatusNoMatch, Text: noMatchText}

	snap, err := r.rules.Snapshot(ctx)
	if err != nil {
		res.Status = StatusExecutionError
		res.Text = executionErrText
		res.Diagnostics.ExecutionError = err.Error()
		return res
	}

	res.Diagnostics.Tokens = Tokenize(rawText)
	if len(res.Diagnostics.Tokens) == 0 {
		return res
	}

	res.Diagnostics.Candidates = Match(res.Diagnostics.Tokens, rawText, snap)
	rule := Winner(res.Diagnostics.Candidates, snap)
	if rule == nil {
		return res
	}
	res.Rule = rule
	res.Diagnostics.Score = res.Diagnostics.Candidates[0].Score

	values, missing := ExtractSeeded(rule, rawText, seed)
	res.Parameters = values
	if len(missing) > 0 {
		res.Status = StatusNeedsClarification
		res.Diagnostics.MissingParameters = missing
		res.Text = clarificationText(rule, missing)
		return res
	}

	rendered, err := Render(rule, values)
	if err != nil {
		res.Status = StatusExecutionError
		res.Text = executionErrText
		res.Diagnostics.RenderError = err.Error()
		log.Printf("engine: render failed for rule %s: %v", rule.Name, err)
		return res
	}

	return r.dispatch(ctx, res, rule, rendered)
}

// dispatch hands the rendered statement to the execution capability, or
// returns the literal text directly. A single execution failure is
// reported as-is; there is no retry and no fallback to another rule.
func (r *Resolver) dispatch(ctx context.Context, res *Resolution, rule *catalog.Rule, rendered *RenderedStatement) *Resolution {
	if rule.ActionType == catalog.ActionLiteral {
		res.Status = StatusMatched
		res.Text = rendered.Text
		return res
	}

	rows, err := r.exec.Query(ctx, rendered.Statement, rendered.Args)
	if err != nil {
		res.Status = StatusExecutionError
		res.Text = executionErrText
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			res.Diagnostics.ExecutionError = fmt.Sprintf("canceled: %v", err)
		} else {
			res.Diagnostics.ExecutionError = err.Error()
		}
		log.Printf("engine: dispatch failed for rule %s: %v", rule.Name, err)
		return res
	}

	res.Status = StatusMatched
	res.Rows = rows
	res.Text = resultText(rule, len(rows))
	return res
}

// ListActiveRules exposes the current snapshot's rules for introspection
// and testing tooling.
func (r *Resolver) ListActiveRules(ctx context.Context) ([]catalog.Rule, error) {
	snap, err := r.rules.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Rules, nil
}

// ReloadRules swaps in a fresh catalog snapshot.
func (r *Resolver) ReloadRules(ctx context.Context) error {
	_, err := r.rules.Reload(ctx)
	return err
}

func clarificationText(rule *catalog.Rule, missing []string) string {
	return fmt.Sprintf("我明白您想查询「%s」，但还缺少必要的条件：%s。请补充后再试。",
		rule.Name, strings.Join(missing, "、"))
}

func resultText(rule *catalog.Rule, count int) string {
	if count == 0 {
		return fmt.Sprintf("没有查到「%s」的相关数据。", rule.Name)
	}
	return fmt.Sprintf("为您查到 %d 条「%s」数据。", count, rule.Name)
}
