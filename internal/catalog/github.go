package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"
)

const (
	// defaultPerKeyword is how many issues one keyword search pulls in.
	defaultPerKeyword = 5

	// maxConcurrentSearches bounds the keyword fan-out.
	maxConcurrentSearches = 4
)

// githubIssue is the subset of the GitHub search result we consume.
type githubIssue struct {
	ID            int64  `json:"id"`
	HTMLURL       string `json:"html_url"`
	RepositoryURL string `json:"repository_url"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	State         string `json:"state"`
	CreatedAt     string `json:"created_at"`
	User          struct {
		Login string `json:"login"`
	} `json:"user"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

type githubSearchResponse struct {
	Items []githubIssue `json:"items"`
}

// GitHubSource fetches candidate issues straight from the GitHub search
// API, one labeled search per keyword. It is the fallback when no match
// service is configured.
type GitHubSource struct {
	baseURL    string
	token      string
	perKeyword int
	client     *http.Client
	logger     *slog.Logger
}

// GitHubOption configures a GitHubSource.
type GitHubOption func(*GitHubSource)

// WithGitHubToken sets a token for authenticated search (higher rate limits).
func WithGitHubToken(token string) GitHubOption {
	return func(s *GitHubSource) { s.token = token }
}

// WithPerKeyword sets how many issues each keyword search requests.
func WithPerKeyword(n int) GitHubOption {
	return func(s *GitHubSource) {
		if n > 0 {
			s.perKeyword = n
		}
	}
}

// WithGitHubHTTPClient replaces the underlying HTTP client (for testing).
func WithGitHubHTTPClient(c *http.Client) GitHubOption {
	return func(s *GitHubSource) { s.client = c }
}

// NewGitHubSource creates a source against the GitHub API at baseURL.
func NewGitHubSource(baseURL string, logger *slog.Logger, opts ...GitHubOption) *GitHubSource {
	s := &GitHubSource{
		baseURL:    baseURL,
		perKeyword: defaultPerKeyword,
		logger:     logger,
		client:     &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch searches open issues labeled with each keyword concurrently and
// merges the results in keyword order, deduplicated by issue URL.
func (s *GitHubSource) Fetch(ctx context.Context, keywords []string, maxResults int) ([]Issue, FetchStats, error) {
	if len(keywords) == 0 || maxResults <= 0 {
		return nil, FetchStats{}, nil
	}

	perKeyword := make([][]githubIssue, len(keywords))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSearches)
	for i, kw := range keywords {
		g.Go(func() error {
			items, err := s.search(gctx, kw)
			if err != nil {
				return fmt.Errorf("searching %q: %w", kw, err)
			}
			perKeyword[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, FetchStats{}, err
	}

	var (
		issues []Issue
		stats  FetchStats
		seen   = make(map[string]bool)
	)
	for _, items := range perKeyword {
		for _, item := range items {
			stats.Fetched++
			if item.ID == 0 || item.Title == "" || item.HTMLURL == "" {
				stats.Dropped++
				continue
			}
			if seen[item.HTMLURL] {
				continue
			}
			seen[item.HTMLURL] = true
			issues = append(issues, toIssue(item))
		}
	}
	if stats.Dropped > 0 {
		s.logger.Warn("dropped invalid github records", "dropped", stats.Dropped, "fetched", stats.Fetched)
	}
	if len(issues) > maxResults {
		issues = issues[:maxResults]
	}
	return issues, stats, nil
}

// search runs one labeled issue search for a single keyword.
func (s *GitHubSource) search(ctx context.Context, keyword string) ([]githubIssue, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("label:%q state:open type:issue", keyword))
	q.Set("per_page", strconv.Itoa(s.perKeyword))
	q.Set("sort", "created")
	q.Set("order", "desc")

	reqURL := s.baseURL + "/search/issues?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, classifyTransportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var parsed githubSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &UpstreamError{Message: "malformed search response", Err: err}
	}
	return parsed.Items, nil
}

func toIssue(item githubIssue) Issue {
	labels := make([]string, 0, len(item.Labels))
	for _, l := range item.Labels {
		labels = append(labels, l.Name)
	}
	desc := stripMarkup(item.Body)
	if len(desc) > 500 {
		desc = desc[:500]
	}
	return Issue{
		ID:            item.ID,
		URL:           item.HTMLURL,
		RepositoryURL: item.RepositoryURL,
		Title:         item.Title,
		Description:   desc,
		Labels:        dedupeLabels(labels),
		Author:        item.User.Login,
		CreatedAt:     parseTime(item.CreatedAt),
		State:         item.State,
	}
}
