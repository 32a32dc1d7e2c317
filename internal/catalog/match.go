package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"
)

// DefaultTimeout bounds a single catalog fetch.
const DefaultTimeout = 20 * time.Second

// matchRecord is the wire shape of one recommendation from the match
// service. Field names follow its snake_case contract.
type matchRecord struct {
	IssueID          int64    `json:"issue_id"`
	IssueURL         string   `json:"issue_url"`
	RepoURL          string   `json:"repo_url"`
	Title            string   `json:"title"`
	ShortDescription string   `json:"short_description"`
	Labels           []string `json:"labels"`
	UserLogin        string   `json:"user_login"`
	CreatedAt        string   `json:"created_at"`
	State            string   `json:"state"`
	SimilarityScore  *float64 `json:"similarity_score"`
}

type matchResponse struct {
	Recommendations []matchRecord `json:"recommendations"`
}

// MatchSource fetches candidate issues from the match service over HTTP.
type MatchSource struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// MatchOption configures a MatchSource.
type MatchOption func(*MatchSource)

// WithToken sets a bearer token sent on every request.
func WithToken(token string) MatchOption {
	return func(s *MatchSource) { s.token = token }
}

// WithTimeout overrides the default fetch timeout.
func WithTimeout(d time.Duration) MatchOption {
	return func(s *MatchSource) { s.client.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client (for testing).
func WithHTTPClient(c *http.Client) MatchOption {
	return func(s *MatchSource) { s.client = c }
}

// NewMatchSource creates a client for the match service at baseURL.
// The client keeps a cookie jar so session cookies set by the service
// survive across fetches.
func NewMatchSource(baseURL string, logger *slog.Logger, opts ...MatchOption) *MatchSource {
	jar, _ := cookiejar.New(nil)
	s := &MatchSource{
		baseURL: baseURL,
		logger:  logger,
		client: &http.Client{
			Timeout: DefaultTimeout,
			Jar:     jar,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch retrieves issue recommendations for the given keywords. Invalid
// records are dropped and counted, never fatal.
func (s *MatchSource) Fetch(ctx context.Context, keywords []string, maxResults int) ([]Issue, FetchStats, error) {
	q := url.Values{}
	for _, kw := range keywords {
		q.Add("keywords", kw)
	}
	q.Set("max_results", strconv.Itoa(maxResults))

	reqURL := s.baseURL + "/match-issue?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, FetchStats{}, fmt.Errorf("building catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, FetchStats{}, classifyTransportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, FetchStats{}, &UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var parsed matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, FetchStats{}, &UpstreamError{Message: "malformed response body", Err: err}
	}

	issues, stats := s.normalize(parsed.Recommendations)
	if stats.Dropped > 0 {
		s.logger.Warn("dropped invalid catalog records", "dropped", stats.Dropped, "fetched", stats.Fetched)
	}
	return issues, stats, nil
}

// normalize validates wire records into Issues. A record needs an id, a
// title and an issue URL; anything else is tolerated.
func (s *MatchSource) normalize(records []matchRecord) ([]Issue, FetchStats) {
	stats := FetchStats{Fetched: len(records)}
	issues := make([]Issue, 0, len(records))
	for _, r := range records {
		if r.IssueID == 0 || r.Title == "" || r.IssueURL == "" {
			stats.Dropped++
			continue
		}
		issue := Issue{
			ID:            r.IssueID,
			URL:           r.IssueURL,
			RepositoryURL: r.RepoURL,
			Title:         r.Title,
			Description:   stripMarkup(r.ShortDescription),
			Labels:        dedupeLabels(r.Labels),
			Author:        r.UserLogin,
			CreatedAt:     parseTime(r.CreatedAt),
			State:         r.State,
		}
		if issue.State == "" {
			issue.State = StateOpen
		}
		if r.SimilarityScore != nil {
			issue.UpstreamScore = *r.SimilarityScore
			issue.HasUpstreamScore = true
		}
		issues = append(issues, issue)
	}
	return issues, stats
}

// classifyTransportErr maps client errors onto the typed catalog errors.
func classifyTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &TimeoutError{Err: err}
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return &TimeoutError{Err: err}
	}
	return &TransportError{Err: err}
}
