package view

import (
	"strings"

	"github.com/goodfirst/goodfirst/internal/matching"
)

// Version identifies the presentation contract. Bumped on any breaking
// change to the Response shape.
const Version = "v1"

// maxSkillsShown caps the labels displayed per result card.
const maxSkillsShown = 3

// Response is the versioned presentation payload.
type Response struct {
	Version string `json:"version"`
	Results []Item `json:"results"`
}

// Item is one presentable recommendation.
type Item struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	RepositoryPath  string   `json:"repository_path"`
	Skills          []string `json:"skills"`
	MatchPercentage int      `json:"match_percentage"`
	IssueURL        string   `json:"issue_url"`
	MatchBand       string   `json:"match_band"`
	MatchColor      string   `json:"match_color"`
}

// Band thresholds are purely cosmetic. Changing them never reorders
// results.
func band(score int) (string, string) {
	switch {
	case score >= 90:
		return "excellent", "#9333ea"
	case score >= 80:
		return "strong", "#a855f7"
	case score >= 70:
		return "good", "#ec4899"
	default:
		return "fair", "#6b7280"
	}
}

// Render converts ranked matches into the versioned presentation shape.
// Order is preserved exactly as ranked.
func Render(matches []matching.Match) Response {
	results := make([]Item, 0, len(matches))
	for _, m := range matches {
		b, color := band(m.DisplayScore)
		skills := m.Issue.Labels
		if len(skills) > maxSkillsShown {
			skills = skills[:maxSkillsShown]
		}
		results = append(results, Item{
			ID:              m.Issue.ID,
			Title:           m.Issue.Title,
			Description:     m.Issue.Description,
			RepositoryPath:  RepositoryPath(m.Issue.RepositoryURL),
			Skills:          skills,
			MatchPercentage: m.DisplayScore,
			IssueURL:        m.Issue.URL,
			MatchBand:       b,
			MatchColor:      color,
		})
	}
	return Response{Version: Version, Results: results}
}

// RepositoryPath reduces a repository URL to its "owner/name" form.
// Unrecognized URLs pass through unchanged.
func RepositoryPath(repoURL string) string {
	for _, prefix := range []string{
		"https://api.github.com/repos/",
		"https://github.com/",
		"http://github.com/",
	} {
		if strings.HasPrefix(repoURL, prefix) {
			return strings.TrimSuffix(strings.TrimPrefix(repoURL, prefix), "/")
		}
	}
	return repoURL
}
