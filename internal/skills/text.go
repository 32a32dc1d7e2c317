package skills

import "strings"

// FromText builds a skill profile by scanning free text (typically an
// extracted resume) against the taxonomy vocabulary. Each occurrence of
// a vocabulary term counts one hit; matching is case-insensitive and
// token-boundary aware so "go" does not match inside "mongodb".
// Multi-word terms like "machine learning" match as substrings of the
// normalized text. Ordering rules are the same as Extract.
func (t Taxonomy) FromText(text string, topK int) Profile {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if strings.TrimSpace(text) == "" {
		return Profile{}
	}

	tokens := strings.Fields(normalizeText(text))
	// Single-spaced form so multi-word terms match regardless of the
	// whitespace in the source text.
	normalized := strings.Join(tokens, " ")

	tokenCounts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		tokenCounts[tok]++
	}

	c := newCounter()
	for _, term := range t.Vocabulary() {
		lower := strings.ToLower(term)
		var hits int
		if strings.ContainsAny(lower, " /") {
			hits = strings.Count(normalized, lower)
		} else {
			hits = tokenCounts[lower]
		}
		for range hits {
			c.add(term)
		}
	}

	return Profile{Keywords: c.top(topK)}
}

// normalizeText lowercases and collapses punctuation to spaces, keeping
// characters that appear inside skill terms (ci/cd, c++, c#).
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '/', r == '+', r == '#':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}
