package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/goodfirst/goodfirst/internal/matching"
	"github.com/goodfirst/goodfirst/internal/recommend"
	"github.com/goodfirst/goodfirst/internal/skills"
	"github.com/goodfirst/goodfirst/internal/storage"
	"github.com/goodfirst/goodfirst/internal/view"
)

const maxRequestBodySize = 1 << 20 // 1MB
const maxResumeBodySize = 10 << 20 // 10MB

// Recommender abstracts the recommendation service for the API layer.
type Recommender interface {
	GetRecommendations(ctx context.Context, maxResults int) ([]matching.Match, recommend.Stats, error)
	GetRecommendationsFor(ctx context.Context, profile skills.Profile, maxResults int) ([]matching.Match, recommend.Stats, error)
}

type AppDeps struct {
	Store       *storage.Store
	Profiles    *skills.Manager
	Taxonomy    skills.Taxonomy
	Recommender Recommender
	Token       string

	// MaxResults caps and defaults the max_results query parameter.
	MaxResults int

	// TopKSkills is how many keywords an assessment keeps.
	TopKSkills int
}

func NewAppHandler(deps AppDeps) http.Handler {
	if deps.MaxResults <= 0 {
		deps.MaxResults = matching.DefaultMaxResults
	}
	if deps.TopKSkills <= 0 {
		deps.TopKSkills = skills.DefaultTopK
	}

	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/taxonomy", handleGetTaxonomy(deps))
		r.Post("/assessments", handleCreateAssessment(deps))
		r.Get("/assessments", handleListAssessments(deps))
		r.Get("/assessments/{id}", handleGetAssessment(deps))
		r.Post("/resumes", handleUploadResume(deps))
		r.Get("/recommendations", handleGetRecommendations(deps))
		r.Get("/history", handleListHistory(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleGetTaxonomy(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(deps.Taxonomy)
	}
}

type createAssessmentRequest struct {
	// Answers holds one selected option index per question, -1 for skipped.
	Answers []int `json:"answers"`
}

type assessmentResponse struct {
	ID       string           `json:"id"`
	Source   string           `json:"source"`
	Keywords []skills.Keyword `json:"keywords"`
	Created  time.Time        `json:"created_at"`
}

func handleCreateAssessment(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req createAssessmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if len(req.Answers) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "answers is required")
			return
		}
		if len(req.Answers) > len(deps.Taxonomy.Questions) {
			httpError(w, http.StatusBadRequest, "invalid_request_error",
				"got %d answers for %d questions", len(req.Answers), len(deps.Taxonomy.Questions))
			return
		}

		profile := deps.Taxonomy.Extract(skills.AnswersFromSelections(req.Answers), deps.TopKSkills)
		if profile.Empty() {
			httpError(w, http.StatusUnprocessableEntity, "no_skills", "answers produced no skills")
			return
		}

		answersJSON, err := json.Marshal(req.Answers)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to encode answers: %v", err)
			return
		}
		keywordsJSON, err := json.Marshal(profile.Keywords)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to encode keywords: %v", err)
			return
		}

		a := storage.Assessment{
			ID:           uuid.New().String(),
			Source:       storage.SourceQuiz,
			AnswersJSON:  string(answersJSON),
			KeywordsJSON: string(keywordsJSON),
			CreatedAt:    time.Now().UTC(),
		}
		if err := deps.Store.SaveAssessment(a); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save assessment: %v", err)
			return
		}
		deps.Profiles.Invalidate()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(assessmentResponse{
			ID:       a.ID,
			Source:   a.Source,
			Keywords: profile.Keywords,
			Created:  a.CreatedAt,
		})
	}
}

func handleGetAssessment(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		a, err := deps.Store.GetAssessment(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "assessment not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get assessment: %v", err)
			return
		}

		writeAssessment(w, a)
	}
}

func handleListAssessments(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)

		assessments, err := deps.Store.ListAssessments(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list assessments: %v", err)
			return
		}

		out := make([]assessmentResponse, 0, len(assessments))
		for _, a := range assessments {
			resp, err := toAssessmentResponse(a)
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to decode assessment %s: %v", a.ID, err)
				return
			}
			out = append(out, resp)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}

type uploadResumeRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"` // base64
}

func handleUploadResume(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxResumeBodySize)
		defer r.Body.Close()

		var req uploadResumeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Content == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "content is required")
			return
		}
		decoded, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid base64 content")
			return
		}

		doc := storage.ResumeDoc{
			ID:        uuid.New().String(),
			Filename:  req.Filename,
			Content:   decoded,
			CreatedAt: time.Now().UTC(),
		}
		if err := deps.Store.SaveResumeDoc(doc); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save resume: %v", err)
			return
		}

		payload, err := json.Marshal(map[string]string{"resume_id": doc.ID})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create job payload: %v", err)
			return
		}
		job := storage.Job{
			ID:          uuid.New().String(),
			Type:        "resume_extract",
			PayloadJSON: string(payload),
		}
		if err := deps.Store.EnqueueJob(job); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to enqueue job: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{
			"id":     doc.ID,
			"status": "queued",
		})
	}
}

func handleGetRecommendations(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxResults := parseIntParam(r, "max_results", deps.MaxResults, 50)

		var (
			matches []matching.Match
			stats   recommend.Stats
			err     error
		)
		if id := r.URL.Query().Get("assessment_id"); id != "" {
			profile, perr := profileForAssessment(deps, id)
			if perr != nil {
				if errors.Is(perr, storage.ErrNotFound) {
					httpError(w, http.StatusNotFound, "not_found", "assessment not found")
					return
				}
				httpError(w, http.StatusInternalServerError, "api_error", "failed to load assessment: %v", perr)
				return
			}
			matches, stats, err = deps.Recommender.GetRecommendationsFor(r.Context(), profile, maxResults)
		} else {
			matches, stats, err = deps.Recommender.GetRecommendations(r.Context(), maxResults)
		}
		if err != nil {
			writeRecommendError(w, err)
			return
		}

		resp := view.Render(matches)
		saveHistory(deps, stats, resp)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func profileForAssessment(deps AppDeps, id string) (skills.Profile, error) {
	a, err := deps.Store.GetAssessment(id)
	if err != nil {
		return skills.Profile{}, err
	}
	var keywords []skills.Keyword
	if err := json.Unmarshal([]byte(a.KeywordsJSON), &keywords); err != nil {
		return skills.Profile{}, fmt.Errorf("decoding keywords: %w", err)
	}
	return skills.Profile{Keywords: keywords}, nil
}

// saveHistory records the run best-effort; a storage hiccup never fails
// the request.
func saveHistory(deps AppDeps, stats recommend.Stats, resp view.Response) {
	keywords := []string{}
	if p, err := deps.Profiles.Current(); err == nil && len(p.Terms()) > 0 {
		keywords = p.Terms()
	}
	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		return
	}
	resultsJSON, err := json.Marshal(resp.Results)
	if err != nil {
		return
	}
	_ = deps.Store.SaveHistory(storage.HistoryEntry{
		ID:           uuid.New().String(),
		KeywordsJSON: string(keywordsJSON),
		ResultsJSON:  string(resultsJSON),
		Fetched:      stats.Fetched,
		Dropped:      stats.Dropped,
		Returned:     stats.Returned,
		CreatedAt:    time.Now().UTC(),
	})
}

func handleListHistory(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)

		entries, err := deps.Store.ListHistory(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list history: %v", err)
			return
		}
		if entries == nil {
			entries = []storage.HistoryEntry{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}
}

// writeRecommendError maps classified recommendation failures onto HTTP
// statuses. Causes stay in the server log, not the response.
func writeRecommendError(w http.ResponseWriter, err error) {
	switch recommend.KindOf(err) {
	case recommend.KindNoProfile:
		httpError(w, http.StatusUnprocessableEntity, string(recommend.KindNoProfile),
			"no skill profile; complete the quiz or upload a resume first")
	case recommend.KindTimedOut:
		httpError(w, http.StatusGatewayTimeout, string(recommend.KindTimedOut), "issue catalog timed out")
	case recommend.KindFetchFailed:
		httpError(w, http.StatusBadGateway, string(recommend.KindFetchFailed), "issue catalog unreachable")
	case recommend.KindCatalogError:
		httpError(w, http.StatusBadGateway, string(recommend.KindCatalogError), "issue catalog returned an invalid response")
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "recommendation failed")
	}
}

func writeAssessment(w http.ResponseWriter, a storage.Assessment) {
	resp, err := toAssessmentResponse(a)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "failed to decode assessment: %v", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func toAssessmentResponse(a storage.Assessment) (assessmentResponse, error) {
	var keywords []skills.Keyword
	if err := json.Unmarshal([]byte(a.KeywordsJSON), &keywords); err != nil {
		return assessmentResponse{}, err
	}
	return assessmentResponse{
		ID:       a.ID,
		Source:   a.Source,
		Keywords: keywords,
		Created:  a.CreatedAt,
	}, nil
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, kind string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"kind":    kind,
			"message": msg,
		},
	})
}
