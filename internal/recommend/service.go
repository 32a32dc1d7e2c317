package recommend

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/goodfirst/goodfirst/internal/catalog"
	"github.com/goodfirst/goodfirst/internal/matching"
	"github.com/goodfirst/goodfirst/internal/skills"
)

// ProfileProvider yields the current skill profile. Implemented by
// skills.Manager.
type ProfileProvider interface {
	Current() (skills.Profile, error)
}

// Stats describes one completed recommendation run.
type Stats struct {
	Fetched  int
	Dropped  int
	Returned int
	Duration time.Duration
}

// Service ties the skill profile, the issue catalog and the ranker into
// one operation.
type Service struct {
	profiles ProfileProvider
	source   catalog.Source
	logger   *slog.Logger
}

// NewService creates a recommendation service.
func NewService(profiles ProfileProvider, source catalog.Source, logger *slog.Logger) *Service {
	return &Service{profiles: profiles, source: source, logger: logger}
}

// GetRecommendations fetches and ranks issues for the current profile.
// The profile is checked before any network work so a missing profile
// never costs a catalog round trip. maxResults <= 0 yields an empty
// result without fetching.
func (s *Service) GetRecommendations(ctx context.Context, maxResults int) ([]matching.Match, Stats, error) {
	profile, err := s.profiles.Current()
	if err != nil {
		return nil, Stats{}, &Error{Kind: KindCatalogError, Message: "loading skill profile", Err: err}
	}
	return s.GetRecommendationsFor(ctx, profile, maxResults)
}

// GetRecommendationsFor ranks issues against an explicit profile
// instead of the current one.
func (s *Service) GetRecommendationsFor(ctx context.Context, profile skills.Profile, maxResults int) ([]matching.Match, Stats, error) {
	start := time.Now()

	if profile.Empty() {
		return nil, Stats{}, &Error{
			Kind:    KindNoProfile,
			Message: "no skill profile; complete the quiz or upload a resume first",
		}
	}
	if maxResults <= 0 {
		return []matching.Match{}, Stats{Duration: time.Since(start)}, nil
	}

	issues, fetchStats, err := s.source.Fetch(ctx, profile.Terms(), maxResults)
	if err != nil {
		return nil, Stats{}, classifyFetchErr(err)
	}

	matches, err := matching.Rank(profile, issues, maxResults)
	if err != nil {
		if errors.Is(err, matching.ErrNoProfile) {
			return nil, Stats{}, &Error{Kind: KindNoProfile, Message: "no skill profile"}
		}
		return nil, Stats{}, &Error{Kind: KindCatalogError, Message: "ranking issues", Err: err}
	}

	stats := Stats{
		Fetched:  fetchStats.Fetched,
		Dropped:  fetchStats.Dropped,
		Returned: len(matches),
		Duration: time.Since(start),
	}
	s.logger.Info("recommendations ready",
		"fetched", stats.Fetched,
		"dropped", stats.Dropped,
		"returned", stats.Returned,
		"duration", stats.Duration,
	)
	return matches, stats, nil
}

func classifyFetchErr(err error) error {
	switch {
	case catalog.IsTimeout(err):
		return &Error{Kind: KindTimedOut, Message: "issue catalog timed out", Err: err}
	case catalog.IsTransport(err):
		return &Error{Kind: KindFetchFailed, Message: "issue catalog unreachable", Err: err}
	case catalog.IsUpstream(err):
		return &Error{Kind: KindCatalogError, Message: "issue catalog returned an invalid response", Err: err}
	default:
		return &Error{Kind: KindFetchFailed, Message: "fetching issues", Err: err}
	}
}
