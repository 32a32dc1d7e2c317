package view

import (
	"reflect"
	"testing"

	"github.com/goodfirst/goodfirst/internal/catalog"
	"github.com/goodfirst/goodfirst/internal/matching"
)

func matchWith(id int64, score int, labels ...string) matching.Match {
	return matching.Match{
		Issue: catalog.Issue{
			ID:            id,
			Title:         "title",
			URL:           "https://github.com/o/r/issues/1",
			RepositoryURL: "https://github.com/o/r",
			Labels:        labels,
		},
		DisplayScore: score,
	}
}

func TestRender(t *testing.T) {
	resp := Render([]matching.Match{
		matchWith(1, 95, "go", "cli"),
		matchWith(2, 61),
	})

	if resp.Version != "v1" {
		t.Errorf("version = %q, want v1", resp.Version)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	first := resp.Results[0]
	if first.ID != 1 || first.MatchPercentage != 95 || first.RepositoryPath != "o/r" {
		t.Errorf("unexpected first item: %+v", first)
	}
	if !reflect.DeepEqual(first.Skills, []string{"go", "cli"}) {
		t.Errorf("skills = %v", first.Skills)
	}
}

func TestRender_Bands(t *testing.T) {
	cases := []struct {
		score     int
		wantBand  string
		wantColor string
	}{
		{100, "excellent", "#9333ea"},
		{90, "excellent", "#9333ea"},
		{89, "strong", "#a855f7"},
		{80, "strong", "#a855f7"},
		{79, "good", "#ec4899"},
		{70, "good", "#ec4899"},
		{69, "fair", "#6b7280"},
		{0, "fair", "#6b7280"},
	}
	for _, tc := range cases {
		resp := Render([]matching.Match{matchWith(1, tc.score)})
		got := resp.Results[0]
		if got.MatchBand != tc.wantBand || got.MatchColor != tc.wantColor {
			t.Errorf("score %d: band %q color %q, want %q %q",
				tc.score, got.MatchBand, got.MatchColor, tc.wantBand, tc.wantColor)
		}
	}
}

func TestRender_CapsSkillsAtThree(t *testing.T) {
	resp := Render([]matching.Match{matchWith(1, 80, "a", "b", "c", "d", "e")})
	if got := resp.Results[0].Skills; len(got) != 3 {
		t.Errorf("skills = %v, want 3 entries", got)
	}
}

func TestRender_Empty(t *testing.T) {
	resp := Render(nil)
	if resp.Version != "v1" || len(resp.Results) != 0 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestRepositoryPath(t *testing.T) {
	cases := map[string]string{
		"https://github.com/facebook/react":          "facebook/react",
		"https://api.github.com/repos/golang/go":     "golang/go",
		"https://github.com/o/r/":                    "o/r",
		"https://gitlab.com/o/r":                     "https://gitlab.com/o/r",
		"": "",
	}
	for in, want := range cases {
		if got := RepositoryPath(in); got != want {
			t.Errorf("RepositoryPath(%q) = %q, want %q", in, got, want)
		}
	}
}
