package agent

import (
	"context"
	"strings"
	"testing"

	"nlq-router/internal/engine"
)

func TestNewFallbackAgentEmptyKey(t *testing.T) {
	a, err := NewFallbackAgent(context.Background(), "")
	if err != nil {
		t.Fatalf("empty key should not be an error: %v", err)
	}
	if a != nil {
		t.Fatal("empty key should yield a nil agent")
	}

	// Nil agent must be safe to close and must refuse to answer.
	a.Close()
	if _, err := a.Answer(context.Background(), "你好", engine.Diagnostics{}); err == nil {
		t.Fatal("nil agent should return an error from Answer")
	}
}

func TestBuildFallbackPromptNearMisses(t *testing.T) {
	diags := engine.Diagnostics{
		Candidates: []engine.CandidateScore{
			{RuleName: "factory_inventory", Score: 4},
			{RuleName: "defect_rate", Score: 2},
			{RuleName: "lab_test_results", Score: 1},
			{RuleName: "production_tracking", Score: 1},
			{RuleName: "greeting", Score: 0},
		},
	}

	prompt := buildFallbackPrompt("查库存情况", diags)

	if !strings.Contains(prompt, `用户问题："查库存情况"`) {
		t.Errorf("prompt missing quoted query: %s", prompt)
	}
	if !strings.Contains(prompt, "factory_inventory(得分4)") {
		t.Errorf("prompt missing top near miss: %s", prompt)
	}
	if strings.Contains(prompt, "production_tracking") {
		t.Errorf("prompt should cap near misses at three: %s", prompt)
	}
	if strings.Contains(prompt, "greeting") {
		t.Errorf("zero-score candidates must not appear: %s", prompt)
	}
	if strings.Contains(prompt, "缺少参数") {
		t.Errorf("no missing-parameter line expected: %s", prompt)
	}
}

func TestBuildFallbackPromptMissingParameters(t *testing.T) {
	diags := engine.Diagnostics{
		Candidates: []engine.CandidateScore{
			{RuleName: "factory_inventory", Score: 6},
		},
		MissingParameters: []string{"factory"},
	}

	prompt := buildFallbackPrompt("查询库存", diags)

	if !strings.Contains(prompt, "缺少参数：factory") {
		t.Errorf("prompt missing parameter hint: %s", prompt)
	}
}

func TestBuildFallbackPromptNoCandidates(t *testing.T) {
	prompt := buildFallbackPrompt("今天天气如何", engine.Diagnostics{})

	if !strings.Contains(prompt, "近似意图：无") {
		t.Errorf("prompt should state that nothing came close: %s", prompt)
	}
}
