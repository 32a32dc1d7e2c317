package matching

import (
	"errors"
	"sort"

	"github.com/goodfirst/goodfirst/internal/catalog"
	"github.com/goodfirst/goodfirst/internal/skills"
)

// ErrNoProfile is returned when ranking is requested before any skill
// profile exists.
var ErrNoProfile = errors.New("no skill profile available")

// Rank scores, deduplicates and orders issues for a profile, capped at
// maxResults. Ordering is display score descending, then newest first,
// then issue ID ascending so equal candidates always land in the same
// order.
func Rank(profile skills.Profile, issues []catalog.Issue, maxResults int) ([]Match, error) {
	if profile.Empty() {
		return nil, ErrNoProfile
	}
	if maxResults <= 0 {
		return []Match{}, nil
	}

	seen := make(map[int64]bool, len(issues))
	matches := make([]Match, 0, len(issues))
	for _, issue := range issues {
		if seen[issue.ID] {
			continue
		}
		seen[issue.ID] = true
		matches = append(matches, Score(profile, issue))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.DisplayScore != b.DisplayScore {
			return a.DisplayScore > b.DisplayScore
		}
		if !a.Issue.CreatedAt.Equal(b.Issue.CreatedAt) {
			return a.Issue.CreatedAt.After(b.Issue.CreatedAt)
		}
		return a.Issue.ID < b.Issue.ID
	})

	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches, nil
}
