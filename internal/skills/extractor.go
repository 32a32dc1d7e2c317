package skills

import "sort"

// Unanswered is the sentinel option index for a skipped question.
const Unanswered = -1

// DefaultTopK is the number of keywords kept in an extracted profile.
const DefaultTopK = 4

// Answer pairs a question index with the selected option index.
type Answer struct {
	Question int `json:"question"`
	Option   int `json:"option"`
}

// counter accumulates keyword hits while preserving first-seen order,
// so that ties among equal counts break deterministically.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(term string) {
	if _, ok := c.counts[term]; !ok {
		c.order = append(c.order, term)
	}
	c.counts[term]++
}

// top returns the k highest-count terms as weighted keywords, counts
// descending, ties in first-seen order. k <= 0 means all.
func (c *counter) top(k int) []Keyword {
	rank := make(map[string]int, len(c.order))
	for i, term := range c.order {
		rank[term] = i
	}

	terms := make([]string, len(c.order))
	copy(terms, c.order)
	sort.SliceStable(terms, func(i, j int) bool {
		ci, cj := c.counts[terms[i]], c.counts[terms[j]]
		if ci != cj {
			return ci > cj
		}
		return rank[terms[i]] < rank[terms[j]]
	})

	if k > 0 && len(terms) > k {
		terms = terms[:k]
	}

	keywords := make([]Keyword, len(terms))
	for i, term := range terms {
		keywords[i] = Keyword{Term: term, Weight: c.counts[term]}
	}
	return keywords
}

// Extract builds a skill profile from quiz answers. Each answered
// question increments a counter for every keyword tagged on the selected
// option; unanswered questions (Option == Unanswered) and out-of-range
// indexes contribute nothing. The result keeps the topK highest counts
// (DefaultTopK when topK <= 0), counts descending, ties broken by the
// order keywords were first seen.
//
// An empty or fully-unanswered answer set yields an empty profile, not
// an error; callers must treat that as "cannot recommend yet".
func (t Taxonomy) Extract(answers []Answer, topK int) Profile {
	if topK <= 0 {
		topK = DefaultTopK
	}

	c := newCounter()
	for _, a := range answers {
		if a.Option == Unanswered {
			continue
		}
		if a.Question < 0 || a.Question >= len(t.Questions) {
			continue
		}
		q := t.Questions[a.Question]
		if a.Option < 0 || a.Option >= len(q.Options) {
			continue
		}
		for _, kw := range q.Options[a.Option].Keywords {
			c.add(kw)
		}
	}

	return Profile{Keywords: c.top(topK)}
}

// AnswersFromSelections converts a positional selection list (one entry
// per question, Unanswered for skips) into answer pairs. This is the
// shape quiz clients submit.
func AnswersFromSelections(selected []int) []Answer {
	answers := make([]Answer, len(selected))
	for i, opt := range selected {
		answers[i] = Answer{Question: i, Option: opt}
	}
	return answers
}
