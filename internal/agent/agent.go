// Package agent provides the optional LLM fallback for unmatched queries.
// The engine never calls it; the hosting layer (CLI, web) invokes it when
// a resolution ends NO_MATCH or NEEDS_CLARIFICATION and a richer answer
// is wanted than the engine's canned fallback text.
package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"nlq-router/internal/engine"
)

// FallbackAgent wraps the Gemini client and model used for free-form
// fallback answers.
type FallbackAgent struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewFallbackAgent initializes the Gemini client. If the API key is empty,
// the caller receives a nil agent and no error so that commands can
// decide how to handle missing configuration.
func NewFallbackAgent(ctx context.Context, apiKey string) (*FallbackAgent, error) {
	if apiKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := client.GenerativeModel("gemini-2.5-flash-preview-09-2025")

	return &FallbackAgent{
		client: client,
		model:  model,
	}, nil
}

// Close releases underlying resources.
func (a *FallbackAgent) Close() {
	if a == nil || a.client == nil {
		return
	}
	if err := a.client.Close(); err != nil {
		log.Printf("warning: failed to close Gemini client: %v", err)
	}
}

const fallbackSystemPrompt = `你是一个工厂质检数据助手。用户的问题没有命中任何预设的数据查询规则，
或者缺少必要的查询条件。请根据提供的诊断信息，用一两句中文引导用户：
1. 如果有接近命中的规则（近似意图），提示用户可以这样提问。
2. 如果缺少参数，明确告诉用户还需要补充什么条件。
3. 不要编造任何数据，不要输出 SQL，只输出面向用户的引导文字。`

// Answer turns the engine's diagnostics into a helpful guidance message
// for the user. Only near-miss rule names and missing parameter names are
// sent to the model, never query results.
func (a *FallbackAgent) Answer(ctx context.Context, rawText string, diags engine.Diagnostics) (string, error) {
	if a == nil || a.model == nil {
		return "", fmt.Errorf("ai agent is not initialized")
	}

	userPrompt := buildFallbackPrompt(rawText, diags)

	a.model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(fallbackSystemPrompt)}}

	resp, err := a.model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from agent: %v", resp)
	}

	part := resp.Candidates[0].Content.Parts[0]
	textPart, ok := part.(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response type from agent: %T", part)
	}

	return strings.TrimSpace(string(textPart)), nil
}

// buildFallbackPrompt flattens the diagnostics into the user prompt. Kept
// separate so tests can cover it without network access.
func buildFallbackPrompt(rawText string, diags engine.Diagnostics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "用户问题：%q\n", rawText)

	nearMisses := make([]string, 0, 3)
	for _, c := range diags.Candidates {
		if c.Score > 0 && len(nearMisses) < 3 {
			nearMisses = append(nearMisses, fmt.Sprintf("%s(得分%d)", c.RuleName, c.Score))
		}
	}
	if len(nearMisses) > 0 {
		fmt.Fprintf(&b, "近似意图：%s\n", strings.Join(nearMisses, "，"))
	} else {
		b.WriteString("近似意图：无\n")
	}

	if len(diags.MissingParameters) > 0 {
		fmt.Fprintf(&b, "缺少参数：%s\n", strings.Join(diags.MissingParameters, "，"))
	}

	return b.String()
}
