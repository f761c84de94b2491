package engine

import (
	"sort"
	"strings"

	"nlq-router/internal/catalog"
)

// Extract derives the parameter values for the matched rule from the raw
// query text. Parameters are extracted independently, each against the
// whole raw text; an earlier match never consumes text away from a later
// parameter. Returns the extracted values and the names of required
// parameters that could not be filled, in declaration order.
func Extract(rule *catalog.Rule, rawText string) (map[string]string, []string) {
	return ExtractSeeded(rule, rawText, nil)
}

// ExtractSeeded is Extract with session carry-over: seed values are
// consulted only when normal extraction fails for a parameter, before the
// spec default.
func ExtractSeeded(rule *catalog.Rule, rawText string, seed map[string]string) (map[string]string, []string) {
	values := make(map[string]string, len(rule.Parameters))
	missing := make([]string, 0)

	for _, spec := range rule.Parameters {
		value, ok := extractOne(rule, &spec, rawText)
		if !ok {
			if seeded, has := seed[spec.Name]; has && seeded != "" {
				value, ok = seeded, true
			}
		}
		if !ok && !spec.Required && spec.Extraction.Default != "" {
			value, ok = spec.Extraction.Default, true
		}

		if ok {
			values[spec.Name] = value
		} else if spec.Required {
			missing = append(missing, spec.Name)
		}
	}

	return values, missing
}

func extractOne(rule *catalog.Rule, spec *catalog.ParameterSpec, rawText string) (string, bool) {
	switch spec.Extraction.Kind {
	case catalog.ExtractValueList:
		return extractFromValueList(&spec.Extraction, rawText)
	case catalog.ExtractPattern:
		re := rule.Pattern(spec.Name)
		if re == nil {
			return "", false
		}
		match := re.FindStringSubmatch(rawText)
		if len(match) > 1 && match[1] != "" {
			return match[1], true
		}
		return "", false
	case catalog.ExtractDefault:
		if spec.Extraction.Default != "" {
			return spec.Extraction.Default, true
		}
		return "", false
	default:
		return "", false
	}
}

// extractFromValueList walks candidates in declaration order; the first
// candidate found in the text (directly or through one of its aliases)
// wins. An alias hit stores the canonical value, not the surface form.
// Aliases whose canonical form is not itself a candidate are tried last,
// in sorted order to keep extraction deterministic.
func extractFromValueList(ex *catalog.Extraction, rawText string) (string, bool) {
	aliases := make([]string, 0, len(ex.AliasMap))
	for alias := range ex.AliasMap {
		if alias != "" {
			aliases = append(aliases, alias)
		}
	}
	sort.Strings(aliases)

	for _, candidate := range ex.Candidates {
		if strings.Contains(rawText, candidate) {
			return candidate, true
		}
		for _, alias := range aliases {
			if ex.AliasMap[alias] == candidate && strings.Contains(rawText, alias) {
				return candidate, true
			}
		}
	}

	for _, alias := range aliases {
		if strings.Contains(rawText, alias) {
			return ex.AliasMap[alias], true
		}
	}
	return "", false
}
