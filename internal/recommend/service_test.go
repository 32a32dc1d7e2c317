package recommend

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/goodfirst/goodfirst/internal/catalog"
	"github.com/goodfirst/goodfirst/internal/skills"
)

type mockProfiles struct {
	profile skills.Profile
	err     error
}

func (m *mockProfiles) Current() (skills.Profile, error) { return m.profile, m.err }

type mockSource struct {
	issues []catalog.Issue
	stats  catalog.FetchStats
	err    error

	calls       int
	gotKeywords []string
	gotMax      int
}

func (m *mockSource) Fetch(_ context.Context, keywords []string, maxResults int) ([]catalog.Issue, catalog.FetchStats, error) {
	m.calls++
	m.gotKeywords = keywords
	m.gotMax = maxResults
	return m.issues, m.stats, m.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func reactProfile() skills.Profile {
	return skills.Profile{Keywords: []skills.Keyword{
		{Term: "react", Weight: 2},
		{Term: "css", Weight: 1},
	}}
}

func TestGetRecommendations(t *testing.T) {
	source := &mockSource{
		issues: []catalog.Issue{
			{ID: 1, Title: "react bug", URL: "https://x/1"},
			{ID: 2, Title: "nothing relevant", URL: "https://x/2"},
		},
		stats: catalog.FetchStats{Fetched: 3, Dropped: 1},
	}
	svc := NewService(&mockProfiles{profile: reactProfile()}, source, testLogger())

	matches, stats, err := svc.GetRecommendations(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Issue.ID != 1 {
		t.Errorf("best match id = %d, want 1", matches[0].Issue.ID)
	}
	if stats.Fetched != 3 || stats.Dropped != 1 || stats.Returned != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if len(source.gotKeywords) != 2 || source.gotKeywords[0] != "react" {
		t.Errorf("source keywords = %v", source.gotKeywords)
	}
	if source.gotMax != 10 {
		t.Errorf("source maxResults = %d, want 10", source.gotMax)
	}
}

func TestGetRecommendations_NoProfileSkipsFetch(t *testing.T) {
	source := &mockSource{}
	svc := NewService(&mockProfiles{}, source, testLogger())

	_, _, err := svc.GetRecommendations(context.Background(), 10)
	if KindOf(err) != KindNoProfile {
		t.Fatalf("kind = %q, want no_profile (err: %v)", KindOf(err), err)
	}
	if source.calls != 0 {
		t.Errorf("catalog fetched %d times despite missing profile", source.calls)
	}
}

func TestGetRecommendations_ZeroMaxSkipsFetch(t *testing.T) {
	source := &mockSource{}
	svc := NewService(&mockProfiles{profile: reactProfile()}, source, testLogger())

	matches, _, err := svc.GetRecommendations(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 || source.calls != 0 {
		t.Errorf("matches %d, fetches %d; want 0 and 0", len(matches), source.calls)
	}
}

func TestGetRecommendations_ErrorKinds(t *testing.T) {
	cases := []struct {
		name     string
		fetchErr error
		want     Kind
	}{
		{"timeout", &catalog.TimeoutError{Err: errors.New("deadline")}, KindTimedOut},
		{"transport", &catalog.TransportError{Err: errors.New("refused")}, KindFetchFailed},
		{"upstream", &catalog.UpstreamError{StatusCode: 502, Message: "bad gateway"}, KindCatalogError},
		{"unclassified", errors.New("weird"), KindFetchFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			source := &mockSource{err: tc.fetchErr}
			svc := NewService(&mockProfiles{profile: reactProfile()}, source, testLogger())

			_, _, err := svc.GetRecommendations(context.Background(), 5)
			if KindOf(err) != tc.want {
				t.Errorf("kind = %q, want %q (err: %v)", KindOf(err), tc.want, err)
			}
			if !errors.Is(err, tc.fetchErr) {
				t.Errorf("cause not wrapped: %v", err)
			}
		})
	}
}

func TestGetRecommendations_ProfileLoadError(t *testing.T) {
	svc := NewService(&mockProfiles{err: errors.New("db locked")}, &mockSource{}, testLogger())
	if _, _, err := svc.GetRecommendations(context.Background(), 5); err == nil {
		t.Fatal("expected error")
	}
}
