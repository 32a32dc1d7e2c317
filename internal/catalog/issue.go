package catalog

import (
	"context"
	"time"
)

// Issue states.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// Issue is a normalized candidate issue eligible for ranking.
type Issue struct {
	ID            int64
	URL           string
	RepositoryURL string
	Title         string
	Description   string
	Labels        []string
	Author        string
	CreatedAt     time.Time
	State         string

	// UpstreamScore is the catalog's own similarity score, when the
	// source provides one. Valid only if HasUpstreamScore is true.
	UpstreamScore    float64
	HasUpstreamScore bool
}

// FetchStats carries per-fetch diagnostics. Dropped counts records that
// failed validation and were excluded; it never fails a fetch.
type FetchStats struct {
	Fetched int
	Dropped int
}

// Source fetches candidate issues for a set of skill keywords. A fetch
// is single-attempt and must honor ctx cancellation; retry policy
// belongs to callers.
type Source interface {
	Fetch(ctx context.Context, keywords []string, maxResults int) ([]Issue, FetchStats, error)
}

// dedupeLabels removes duplicates while preserving order.
func dedupeLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

// parseTime accepts the timestamp shapes seen across sources. A bad
// timestamp is tolerated as the zero time rather than dropping the record.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
