// Package catalog provides database-driven intent rule management.
// Rules are stored externally (PostgreSQL or JSON fixtures), loaded as
// immutable snapshots, and validated before they are allowed to match.
package catalog

import (
	"context"
	"regexp"
	"time"
)

// =============================================================================
// Core Models
// =============================================================================

// ActionType describes what a rule does when it wins a match.
type ActionType string

const (
	// ActionQuery renders the template into a parameterized SQL statement.
	ActionQuery ActionType = "SQL_QUERY"
	// ActionLiteral renders the template into display text.
	ActionLiteral ActionType = "RESPONSE"
	// ActionUnsupported marks a rule whose action could not be validated.
	// Such rules are never dispatched.
	ActionUnsupported ActionType = "UNSUPPORTED"
)

// RuleStatus controls whether a rule participates in matching.
type RuleStatus string

const (
	StatusActive   RuleStatus = "ACTIVE"
	StatusInactive RuleStatus = "INACTIVE"
)

// ExtractionKind selects the parameter extraction strategy.
type ExtractionKind string

const (
	// ExtractValueList tests candidate values (and their aliases) for
	// occurrence in the raw query text; first positional match wins.
	ExtractValueList ExtractionKind = "value_list"
	// ExtractPattern applies a regular expression and takes the first
	// capture group of the first match.
	ExtractPattern ExtractionKind = "pattern"
	// ExtractDefault always yields the configured default value.
	ExtractDefault ExtractionKind = "default"
)

// Extraction is the tagged extraction configuration for one parameter.
// Only the fields relevant to Kind are populated.
type Extraction struct {
	Kind       ExtractionKind    `json:"kind"`
	Candidates []string          `json:"candidates,omitempty"`
	AliasMap   map[string]string `json:"alias_map,omitempty"` // alias -> canonical value
	Pattern    string            `json:"pattern,omitempty"`
	Default    string            `json:"default,omitempty"` // fallback for optional parameters
}

// ParameterSpec describes one substitution slot in a rule's action template.
type ParameterSpec struct {
	Name       string     `json:"name"`
	Required   bool       `json:"required"`
	Extraction Extraction `json:"extraction"`
}

// IntentRule is the unit of routing knowledge: a named mapping from
// trigger vocabulary to a parameterized action template.
type IntentRule struct {
	ID             string              `json:"rule_id"`
	Name           string              `json:"name"`
	Category       string              `json:"category"`
	TriggerWords   []string            `json:"trigger_words"`
	Synonyms       map[string][]string `json:"synonyms"` // canonical word -> alternate surface forms
	Parameters     []ParameterSpec     `json:"parameters"`
	ActionType     ActionType          `json:"action_type"`
	ActionTemplate string              `json:"action_template"`
	Priority       int                 `json:"priority"`
	SortOrder      int                 `json:"sort_order"`
	Status         RuleStatus          `json:"status"`
	ExampleQuery   string              `json:"example_query"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// IsActive reports whether the rule participates in matching.
func (r *IntentRule) IsActive() bool {
	return r.Status == StatusActive
}

// =============================================================================
// Validated Rules & Snapshots
// =============================================================================

// Rule is a validated IntentRule ready for matching. Pattern extractions
// are compiled once at load time so that resolution never compiles regexes.
type Rule struct {
	IntentRule
	patterns map[string]*regexp.Regexp
}

// Pattern returns the compiled extraction pattern for the named parameter,
// or nil if the parameter does not use pattern extraction.
func (r *Rule) Pattern(param string) *regexp.Regexp {
	return r.patterns[param]
}

// Snapshot is an immutable view of the catalog at one load. Matching always
// runs against a single snapshot, so a concurrent reload never changes a
// rule mid-resolution.
type Snapshot struct {
	Rules    []Rule        // active, valid rules ordered by SortOrder then ID
	Rejected []*RuleFault  // active rules excluded by validation
	LoadedAt time.Time
}

// FindRule returns the snapshot rule with the given name, or nil.
func (s *Snapshot) FindRule(name string) *Rule {
	for i := range s.Rules {
		if s.Rules[i].Name == name {
			return &s.Rules[i]
		}
	}
	return nil
}

// =============================================================================
// Source Interface
// =============================================================================

// Source loads rule records from wherever the catalog lives. Implementations
// return every stored rule; validation and active-filtering happen in
// BuildSnapshot so that faults can be reported instead of silently served.
type Source interface {
	LoadRules(ctx context.Context) ([]IntentRule, error)
	Close() error
}
