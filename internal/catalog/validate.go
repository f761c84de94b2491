package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"nlq-router/internal/placeholder"
)

// RuleFault reports one rule that failed the load-time integrity checks.
// Faulty rules are excluded from matching and surfaced for admin repair;
// they are never dispatched.
type RuleFault struct {
	RuleID   string
	RuleName string
	Reason   string
}

func (f *RuleFault) Error() string {
	return fmt.Sprintf("rule %s (%s): %s", f.RuleName, f.RuleID, f.Reason)
}

// BuildSnapshot validates every active rule record and assembles the
// matchable snapshot. Inactive rules are skipped without comment; active
// rules that fail a check land in Snapshot.Rejected.
//
// Checks applied per active rule:
//   - action template must be non-empty
//   - action type must be SQL_QUERY or RESPONSE
//   - every placeholder in the template needs a matching ParameterSpec
//   - value-list extractions need at least one candidate
//   - pattern extractions must compile and contain a capture group
func BuildSnapshot(records []IntentRule) *Snapshot {
	snap := &Snapshot{LoadedAt: time.Now()}
	seenNames := make(map[string]bool)

	for _, rec := range records {
		if !rec.IsActive() {
			continue
		}

		if fault := checkRule(&rec); fault != nil {
			snap.Rejected = append(snap.Rejected, fault)
			continue
		}
		if seenNames[rec.Name] {
			snap.Rejected = append(snap.Rejected, &RuleFault{
				RuleID:   rec.ID,
				RuleName: rec.Name,
				Reason:   "duplicate rule name among active rules",
			})
			continue
		}
		seenNames[rec.Name] = true

		rule := Rule{IntentRule: rec}
		for _, p := range rec.Parameters {
			if p.Extraction.Kind != ExtractPattern {
				continue
			}
			// Compile errors were screened in checkRule.
			re := regexp.MustCompile(p.Extraction.Pattern)
			if rule.patterns == nil {
				rule.patterns = make(map[string]*regexp.Regexp)
			}
			rule.patterns[p.Name] = re
		}
		snap.Rules = append(snap.Rules, rule)
	}

	sort.SliceStable(snap.Rules, func(i, j int) bool {
		a, b := &snap.Rules[i], &snap.Rules[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.ID < b.ID
	})

	return snap
}

func checkRule(rec *IntentRule) *RuleFault {
	fault := func(reason string) *RuleFault {
		return &RuleFault{RuleID: rec.ID, RuleName: rec.Name, Reason: reason}
	}

	if strings.TrimSpace(rec.Name) == "" {
		return fault("active rule has an empty name")
	}
	if strings.TrimSpace(rec.ActionTemplate) == "" {
		return fault("active rule has an empty action template")
	}

	switch rec.ActionType {
	case ActionQuery, ActionLiteral:
	case ActionUnsupported:
		return fault("action type is UNSUPPORTED")
	default:
		return fault(fmt.Sprintf("unknown action type %q", rec.ActionType))
	}

	specs := make(map[string]*ParameterSpec, len(rec.Parameters))
	for i := range rec.Parameters {
		p := &rec.Parameters[i]
		if p.Name == "" {
			return fault("parameter with empty name")
		}
		if _, dup := specs[p.Name]; dup {
			return fault(fmt.Sprintf("duplicate parameter %q", p.Name))
		}
		specs[p.Name] = p

		switch p.Extraction.Kind {
		case ExtractValueList:
			if len(p.Extraction.Candidates) == 0 {
				return fault(fmt.Sprintf("parameter %q: value list has no candidates", p.Name))
			}
		case ExtractPattern:
			re, err := regexp.Compile(p.Extraction.Pattern)
			if err != nil {
				return fault(fmt.Sprintf("parameter %q: invalid pattern: %v", p.Name, err))
			}
			if re.NumSubexp() < 1 {
				return fault(fmt.Sprintf("parameter %q: pattern has no capture group", p.Name))
			}
		case ExtractDefault:
			if p.Extraction.Default == "" {
				return fault(fmt.Sprintf("parameter %q: default extraction with empty default", p.Name))
			}
			if p.Required {
				return fault(fmt.Sprintf("parameter %q: required parameter cannot use default extraction", p.Name))
			}
		default:
			return fault(fmt.Sprintf("parameter %q: unknown extraction kind %q", p.Name, p.Extraction.Kind))
		}
	}

	for _, name := range placeholder.Find(rec.ActionTemplate) {
		if _, ok := specs[name]; !ok {
			return fault(fmt.Sprintf("template placeholder %q has no parameter spec", name))
		}
	}

	return nil
}
