// Package placeholder provides shared placeholder detection for action templates.
//
// Rule templates embed named substitution slots in one of two forms:
// the named-bind form ":factory" and the braced form "{factory}". Both the
// catalog validator and the template renderer need to see the same set of
// placeholders, so the scanning logic lives here.
package placeholder

import "regexp"

var (
	// bracedPattern matches {identifier}
	bracedPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

	// namedPattern matches :identifier, but not the second colon of a
	// Postgres "::type" cast.
	namedPattern = regexp.MustCompile(`(^|[^:]):([a-zA-Z_][a-zA-Z0-9_]*)`)
)

// Find returns all unique placeholder names in the template, in first-seen
// order. Braced occurrences are scanned before named ones so that mixed
// templates still produce a deterministic ordering.
func Find(template string) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)

	for _, match := range bracedPattern.FindAllStringSubmatch(template, -1) {
		if len(match) > 1 && !seen[match[1]] {
			names = append(names, match[1])
			seen[match[1]] = true
		}
	}

	for _, match := range namedPattern.FindAllStringSubmatch(template, -1) {
		if len(match) > 2 && !seen[match[2]] {
			names = append(names, match[2])
			seen[match[2]] = true
		}
	}

	return names
}

// Has reports whether the template contains any placeholder at all.
func Has(template string) bool {
	return len(Find(template)) > 0
}

// Normalize rewrites every braced placeholder {name} into the named-bind
// form :name, leaving named placeholders untouched. The renderer calls this
// before handing a query template to the execution layer so that only one
// placeholder style reaches the binder.
func Normalize(template string) string {
	return bracedPattern.ReplaceAllString(template, ":$1")
}
