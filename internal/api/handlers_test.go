package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goodfirst/goodfirst/internal/catalog"
	"github.com/goodfirst/goodfirst/internal/matching"
	"github.com/goodfirst/goodfirst/internal/recommend"
	"github.com/goodfirst/goodfirst/internal/skills"
	"github.com/goodfirst/goodfirst/internal/storage"
)

const testToken = "test-token-12345"

// mockRecommender lets tests control recommendation outcomes.
type mockRecommender struct {
	matches []matching.Match
	stats   recommend.Stats
	err     error

	calls      int
	gotMax     int
	gotProfile *skills.Profile
}

func (m *mockRecommender) GetRecommendations(_ context.Context, maxResults int) ([]matching.Match, recommend.Stats, error) {
	m.calls++
	m.gotMax = maxResults
	return m.matches, m.stats, m.err
}

func (m *mockRecommender) GetRecommendationsFor(_ context.Context, profile skills.Profile, maxResults int) ([]matching.Match, recommend.Stats, error) {
	m.calls++
	m.gotMax = maxResults
	m.gotProfile = &profile
	return m.matches, m.stats, m.err
}

func testQuizTaxonomy() skills.Taxonomy {
	return skills.Taxonomy{Questions: []skills.Question{
		{Options: []skills.Option{
			{Keywords: []string{"react", "css"}},
			{Keywords: []string{"docker"}},
		}},
		{Options: []skills.Option{
			{Keywords: []string{"react"}},
			{Keywords: []string{"pandas"}},
		}},
	}}
}

func setupAppHandler(t *testing.T, rec *mockRecommender) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	handler := NewAppHandler(AppDeps{
		Store:       store,
		Profiles:    skills.NewManager(store),
		Taxonomy:    testQuizTaxonomy(),
		Recommender: rec,
		Token:       testToken,
	})
	return handler, store
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestHealth_NoAuthRequired(t *testing.T) {
	h, _ := setupAppHandler(t, &mockRecommender{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestBearerAuth_Rejects(t *testing.T) {
	h, _ := setupAppHandler(t, &mockRecommender{})

	for name, token := range map[string]string{
		"missing": "",
		"wrong":   "not-the-token",
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, authReq(http.MethodGet, "/v1/taxonomy", "", token))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s token: status = %d, want 401", name, rr.Code)
		}
	}
}

func TestGetTaxonomy(t *testing.T) {
	h, _ := setupAppHandler(t, &mockRecommender{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/v1/taxonomy", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	var tax skills.Taxonomy
	if err := json.NewDecoder(rr.Body).Decode(&tax); err != nil {
		t.Fatalf("decoding taxonomy: %v", err)
	}
	if len(tax.Questions) != 2 {
		t.Errorf("got %d questions, want 2", len(tax.Questions))
	}
}

func TestCreateAssessment(t *testing.T) {
	h, store := setupAppHandler(t, &mockRecommender{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/v1/assessments", `{"answers":[0,0]}`, testToken))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	var resp assessmentResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID == "" || resp.Source != storage.SourceQuiz {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.Keywords) != 2 || resp.Keywords[0].Term != "react" || resp.Keywords[0].Weight != 2 {
		t.Errorf("keywords = %+v", resp.Keywords)
	}

	stored, err := store.GetAssessment(resp.ID)
	if err != nil {
		t.Fatalf("assessment not persisted: %v", err)
	}
	if stored.AnswersJSON != "[0,0]" {
		t.Errorf("answers json = %q", stored.AnswersJSON)
	}
}

func TestCreateAssessment_BadRequests(t *testing.T) {
	h, _ := setupAppHandler(t, &mockRecommender{})

	cases := map[string]string{
		"malformed":        `{answers`,
		"empty answers":    `{"answers":[]}`,
		"too many answers": `{"answers":[0,0,0,0,0]}`,
	}
	for name, body := range cases {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, authReq(http.MethodPost, "/v1/assessments", body, testToken))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rr.Code)
		}
	}
}

func TestCreateAssessment_AllSkipped(t *testing.T) {
	h, _ := setupAppHandler(t, &mockRecommender{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/v1/assessments", `{"answers":[-1,-1]}`, testToken))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
}

func TestGetAssessment_NotFound(t *testing.T) {
	h, _ := setupAppHandler(t, &mockRecommender{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/v1/assessments/nope", "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestUploadResume(t *testing.T) {
	h, store := setupAppHandler(t, &mockRecommender{})

	content := base64.StdEncoding.EncodeToString([]byte("Worked with React and Docker"))
	body := `{"filename":"cv.txt","content":"` + content + `"}`

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/v1/resumes", body, testToken))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["status"] != "queued" || resp["id"] == "" {
		t.Fatalf("response = %v", resp)
	}

	doc, err := store.GetResumeDoc(resp["id"])
	if err != nil {
		t.Fatalf("resume not persisted: %v", err)
	}
	if string(doc.Content) != "Worked with React and Docker" {
		t.Errorf("content = %q", doc.Content)
	}

	job, err := store.ClaimNextJob([]string{"resume_extract"})
	if err != nil || job == nil {
		t.Fatalf("extraction job not enqueued: %+v, %v", job, err)
	}
}

func TestUploadResume_InvalidBase64(t *testing.T) {
	h, _ := setupAppHandler(t, &mockRecommender{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/v1/resumes", `{"filename":"cv.txt","content":"!!!"}`, testToken))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestGetRecommendations(t *testing.T) {
	rec := &mockRecommender{
		matches: []matching.Match{
			{
				Issue: catalog.Issue{
					ID:            1,
					Title:         "Fix flaky test",
					URL:           "https://github.com/o/r/issues/1",
					RepositoryURL: "https://github.com/o/r",
					Labels:        []string{"bug"},
				},
				DisplayScore: 91,
			},
		},
		stats: recommend.Stats{Fetched: 5, Dropped: 1, Returned: 1},
	}
	h, store := setupAppHandler(t, rec)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/v1/recommendations?max_results=7", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	if rec.gotMax != 7 {
		t.Errorf("max_results passed = %d, want 7", rec.gotMax)
	}

	var resp struct {
		Version string `json:"version"`
		Results []struct {
			ID              int64  `json:"id"`
			MatchPercentage int    `json:"match_percentage"`
			MatchBand       string `json:"match_band"`
			RepositoryPath  string `json:"repository_path"`
		} `json:"results"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Version != "v1" || len(resp.Results) != 1 {
		t.Fatalf("response = %+v", resp)
	}
	got := resp.Results[0]
	if got.MatchPercentage != 91 || got.MatchBand != "excellent" || got.RepositoryPath != "o/r" {
		t.Errorf("result = %+v", got)
	}

	entries, err := store.ListHistory(10)
	if err != nil || len(entries) != 1 {
		t.Fatalf("history = %+v, %v; want one entry", entries, err)
	}
	if entries[0].Fetched != 5 || entries[0].Returned != 1 {
		t.Errorf("history stats = %+v", entries[0])
	}
}

func TestGetRecommendations_CapsMaxResults(t *testing.T) {
	rec := &mockRecommender{}
	h, _ := setupAppHandler(t, rec)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/v1/recommendations?max_results=500", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rec.gotMax != 50 {
		t.Errorf("max_results passed = %d, want capped 50", rec.gotMax)
	}
}

func TestGetRecommendations_ErrorMapping(t *testing.T) {
	cases := []struct {
		kind recommend.Kind
		want int
	}{
		{recommend.KindNoProfile, http.StatusUnprocessableEntity},
		{recommend.KindTimedOut, http.StatusGatewayTimeout},
		{recommend.KindFetchFailed, http.StatusBadGateway},
		{recommend.KindCatalogError, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			rec := &mockRecommender{err: &recommend.Error{Kind: tc.kind, Message: "boom"}}
			h, _ := setupAppHandler(t, rec)

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, authReq(http.MethodGet, "/v1/recommendations", "", testToken))
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}

			var resp struct {
				Error struct {
					Kind    string `json:"kind"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Error.Kind != string(tc.kind) {
				t.Errorf("error kind = %q, want %q", resp.Error.Kind, tc.kind)
			}
			if resp.Error.Message == "" {
				t.Error("error message empty")
			}
		})
	}
}

func TestGetRecommendations_ByAssessmentID(t *testing.T) {
	rec := &mockRecommender{}
	h, store := setupAppHandler(t, rec)

	a := storage.Assessment{
		ID:           "a-1",
		Source:       storage.SourceQuiz,
		KeywordsJSON: `[{"term":"pandas","weight":1}]`,
	}
	if err := store.SaveAssessment(a); err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/v1/recommendations?assessment_id=a-1", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	if rec.gotProfile == nil || len(rec.gotProfile.Keywords) != 1 || rec.gotProfile.Keywords[0].Term != "pandas" {
		t.Errorf("profile passed = %+v", rec.gotProfile)
	}
}

func TestGetRecommendations_UnknownAssessment(t *testing.T) {
	h, _ := setupAppHandler(t, &mockRecommender{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/v1/recommendations?assessment_id=nope", "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestListHistory_Empty(t *testing.T) {
	h, _ := setupAppHandler(t, &mockRecommender{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/v1/history", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("body = %q, want empty array", body)
	}
}
