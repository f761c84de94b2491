// Package engine implements the intent resolution pipeline: tokenize the
// raw query, match it against the rule catalog, extract parameters, render
// the winning rule's action template, and dispatch it. The pipeline is
// stateless; every stage except dispatch is pure and synchronous.
package engine

import (
	"nlq-router/internal/catalog"
)

// Status is the terminal outcome of one resolution.
type Status string

const (
	// StatusMatched means a rule won and its action completed.
	StatusMatched Status = "MATCHED"
	// StatusNeedsClarification means a rule won but a required parameter
	// could not be extracted from the query text.
	StatusNeedsClarification Status = "NEEDS_CLARIFICATION"
	// StatusNoMatch means no rule scored above the match threshold.
	StatusNoMatch Status = "NO_MATCH"
	// StatusExecutionError means rendering or dispatch failed.
	StatusExecutionError Status = "EXECUTION_ERROR"
)

// CandidateScore records one rule considered by the matcher, in final
// ranked order. Kept even on success so callers and tests can assert
// near misses.
type CandidateScore struct {
	RuleID   string `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Score    int    `json:"score"`
	Priority int    `json:"priority"`
}

// Diagnostics carries the match and failure detail for one resolution.
// Always populated, including on success; execution detail stays here and
// never leaks into the user-facing Text.
type Diagnostics struct {
	Tokens            []string         `json:"tokens"`
	Candidates        []CandidateScore `json:"candidates"`
	Score             int              `json:"score"`
	MissingParameters []string         `json:"missing_parameters,omitempty"`
	RenderError       string           `json:"render_error,omitempty"`
	ExecutionError    string           `json:"execution_error,omitempty"`
}

// Resolution is the engine's single output type. Immutable once returned.
type Resolution struct {
	Status      Status              `json:"status"`
	Rule        *catalog.Rule       `json:"rule,omitempty"`
	Parameters  map[string]string   `json:"parameters,omitempty"`
	Rows        []map[string]any    `json:"rows,omitempty"`
	Text        string              `json:"text"`
	Diagnostics Diagnostics         `json:"diagnostics"`
}
