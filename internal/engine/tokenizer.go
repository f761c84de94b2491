package engine

import "unicode"

// Tokenize splits raw query text into normalized candidate keywords. A
// token is a maximal run of letters (any script) or digits; everything
// else separates. Duplicates are dropped while preserving first-seen
// order, which keeps diagnostics deterministic.
func Tokenize(text string) []string {
	tokens := make([]string, 0)
	seen := make(map[string]bool)
	current := make([]rune, 0, 16)

	flush := func() {
		if len(current) == 0 {
			return
		}
		tok := string(current)
		current = current[:0]
		if !seen[tok] {
			tokens = append(tokens, tok)
			seen[tok] = true
		}
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current = append(current, r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}
