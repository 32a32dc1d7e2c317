package matching

import (
	"math"
	"strings"

	"github.com/goodfirst/goodfirst/internal/catalog"
	"github.com/goodfirst/goodfirst/internal/skills"
)

const (
	// BaselineOffset lifts every displayed score so that any candidate
	// that survived fetching reads as at least a 55% match. The visible
	// scale is a presentation choice, not a similarity claim.
	BaselineOffset = 0.55

	// UpstreamBlendWeight is the share of the catalog's own similarity
	// score when the source provides one.
	UpstreamBlendWeight = 0.5

	// DefaultMaxResults caps a ranking when the caller passes no limit.
	DefaultMaxResults = 10
)

// Match pairs an issue with its computed scores.
type Match struct {
	Issue catalog.Issue

	// Raw is the final score in [0,1] after baseline and blending.
	Raw float64

	// DisplayScore is Raw scaled to a 0-100 integer for presentation.
	DisplayScore int
}

// Score computes the match between a profile and one issue. It is pure:
// the same inputs always produce the same scores.
func Score(profile skills.Profile, issue catalog.Issue) Match {
	overlap := overlapScore(profile, issue)

	blended := overlap
	if issue.HasUpstreamScore {
		upstream := clamp01(issue.UpstreamScore)
		blended = (1-UpstreamBlendWeight)*overlap + UpstreamBlendWeight*upstream
	}

	raw := clamp01(BaselineOffset + blended*(1-BaselineOffset))
	display := int(math.Round(raw * 100))
	if display < 0 {
		display = 0
	}
	if display > 100 {
		display = 100
	}
	return Match{Issue: issue, Raw: raw, DisplayScore: display}
}

// overlapScore is the weight of profile keywords found in the issue,
// divided by total profile weight. A keyword counts when it appears as
// a label (exact, case-insensitive) or as a substring of the title or
// description.
func overlapScore(profile skills.Profile, issue catalog.Issue) float64 {
	total := profile.TotalWeight()
	if total == 0 {
		return 0
	}

	labels := make(map[string]bool, len(issue.Labels))
	for _, l := range issue.Labels {
		labels[strings.ToLower(l)] = true
	}
	title := strings.ToLower(issue.Title)
	desc := strings.ToLower(issue.Description)

	matched := 0
	for _, kw := range profile.Keywords {
		term := strings.ToLower(kw.Term)
		if labels[term] || strings.Contains(title, term) || strings.Contains(desc, term) {
			matched += kw.Weight
		}
	}
	return float64(matched) / float64(total)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
