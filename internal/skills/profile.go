package skills

// Keyword is a single weighted skill term. Higher weight means the signal
// appeared more often in the assessment.
type Keyword struct {
	Term   string `json:"term"`
	Weight int    `json:"weight"`
}

// Profile is an ordered set of weighted skill keywords. Order is the
// frequency rank produced by the extractor; terms are unique and weights
// are positive. The zero value is a valid empty profile.
type Profile struct {
	Keywords []Keyword `json:"keywords"`
}

// Empty reports whether the profile carries no keywords.
func (p Profile) Empty() bool {
	return len(p.Keywords) == 0
}

// Terms returns the keyword terms in rank order.
func (p Profile) Terms() []string {
	terms := make([]string, len(p.Keywords))
	for i, k := range p.Keywords {
		terms[i] = k.Term
	}
	return terms
}

// TotalWeight returns the sum of all keyword weights.
func (p Profile) TotalWeight() int {
	total := 0
	for _, k := range p.Keywords {
		total += k.Weight
	}
	return total
}

// FromTerms builds a profile from bare terms, each with weight 1.
// Duplicate and empty terms are skipped. Used when a caller supplies
// skills directly instead of taking the quiz.
func FromTerms(terms []string) Profile {
	var p Profile
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		p.Keywords = append(p.Keywords, Keyword{Term: t, Weight: 1})
	}
	return p
}
