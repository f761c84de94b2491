package engine

import (
	"sort"
	"strings"
	"unicode/utf8"

	"nlq-router/internal/catalog"
)

// Scoring weights. Trigger and synonym hits weigh by the rune length of
// the matched surface form, so longer and more specific vocabulary
// outranks short generic words.
const (
	// minScore is the match threshold: at least one real signal.
	minScore = 1
	// nameInTextBonus applies when the rule name appears inside the query.
	nameInTextBonus = 10
	// textInTriggerBonus applies when the whole query is contained in a
	// trigger word (short queries like a bare keyword fragment).
	textInTriggerBonus = 5
	// exampleBonus applies when the whole query appears in the rule's
	// example query. Weakest signal.
	exampleBonus = 2
)

// Match scores every rule in the snapshot against the tokenized query and
// returns the full ranked candidate list, best first. The winner is
// candidates[0] only when its score clears the threshold; callers check
// that via Winner.
func Match(tokens []string, rawText string, snap *catalog.Snapshot) []CandidateScore {
	candidates := make([]CandidateScore, 0, len(snap.Rules))
	for i := range snap.Rules {
		rule := &snap.Rules[i]
		candidates = append(candidates, CandidateScore{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Score:    scoreRule(tokens, rawText, rule),
			Priority: rule.Priority,
		})
	}

	// Rank by score desc, then priority desc, then sort order asc, then
	// ID asc. Fully deterministic so repeated resolutions agree.
	ruleAt := func(c CandidateScore) *catalog.Rule {
		return snap.FindRule(c.RuleName)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		ra, rb := ruleAt(a), ruleAt(b)
		if ra.SortOrder != rb.SortOrder {
			return ra.SortOrder < rb.SortOrder
		}
		return a.RuleID < b.RuleID
	})

	return candidates
}

// Winner picks the top candidate if it clears the match threshold.
func Winner(candidates []CandidateScore, snap *catalog.Snapshot) *catalog.Rule {
	if len(candidates) == 0 || candidates[0].Score < minScore {
		return nil
	}
	return snap.FindRule(candidates[0].RuleName)
}

func scoreRule(tokens []string, rawText string, rule *catalog.Rule) int {
	score := 0

	for _, token := range tokens {
		for _, word := range rule.TriggerWords {
			if wordHits(token, word) {
				score += utf8.RuneCountInString(word)
			}
		}
		for _, alternates := range rule.Synonyms {
			for _, alt := range alternates {
				if wordHits(token, alt) {
					score += utf8.RuneCountInString(alt)
				}
			}
		}
	}

	if rule.Name != "" && strings.Contains(rawText, rule.Name) {
		score += nameInTextBonus
	}
	if rawText != "" {
		for _, word := range rule.TriggerWords {
			if strings.Contains(word, rawText) {
				score += textInTriggerBonus
				break
			}
		}
	}
	if rawText != "" && rule.ExampleQuery != "" && strings.Contains(rule.ExampleQuery, rawText) {
		score += exampleBonus
	}

	return score
}

// wordHits reports whether a vocabulary word matches a query token. CJK
// queries tokenize into long unsegmented runs, so containment counts as a
// hit, not just equality.
func wordHits(token, word string) bool {
	if word == "" {
		return false
	}
	return token == word || strings.Contains(token, word)
}
