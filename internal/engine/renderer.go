package engine

import (
	"fmt"
	"sort"
	"strings"

	"nlq-router/internal/catalog"
	"nlq-router/internal/placeholder"
)

// RenderedStatement is the executable form of a rule's action template.
// For query actions Statement carries named-bind placeholders (:name) and
// Args carries the values; the execution layer binds them, the renderer
// never splices values into the statement text. For literal actions only
// Text is set.
type RenderedStatement struct {
	Statement string
	Args      map[string]any
	Text      string
}

// RenderError reports a template/value mismatch discovered at render time.
type RenderError struct {
	Placeholder string
	Template    string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("template placeholder %q has no value", e.Placeholder)
}

// Render substitutes extracted values into the rule's action template.
// Every placeholder present in the template must have a value; this is a
// second line of defense after the required-parameter check, guarding
// against drift between a rule's template and its parameter specs.
func Render(rule *catalog.Rule, values map[string]string) (*RenderedStatement, error) {
	names := placeholder.Find(rule.ActionTemplate)
	for _, name := range names {
		if _, ok := values[name]; !ok {
			return nil, &RenderError{Placeholder: name, Template: rule.ActionTemplate}
		}
	}

	if rule.ActionType == catalog.ActionLiteral {
		return &RenderedStatement{Text: substituteText(rule.ActionTemplate, names, values)}, nil
	}

	args := make(map[string]any, len(names))
	for _, name := range names {
		args[name] = values[name]
	}
	return &RenderedStatement{
		Statement: placeholder.Normalize(rule.ActionTemplate),
		Args:      args,
	}, nil
}

// substituteText performs plain string substitution for literal responses.
// Display text is not executable, so splicing is safe here. Longer names
// substitute first, so :factory is never clipped by a parameter named
// with one of its prefixes.
func substituteText(template string, names []string, values map[string]string) string {
	ordered := make([]string, len(names))
	copy(ordered, names)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i]) > len(ordered[j])
	})

	out := template
	for _, name := range ordered {
		out = strings.ReplaceAll(out, "{"+name+"}", values[name])
		out = strings.ReplaceAll(out, ":"+name, values[name])
	}
	return out
}
