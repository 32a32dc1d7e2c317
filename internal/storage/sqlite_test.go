package storage

import (
	"fmt"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)

	indexes := []string{"idx_assessments_created_at", "idx_jobs_status_run_after", "idx_history_created_at"}
	for _, idx := range indexes {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&count)
		if err != nil {
			t.Fatalf("checking index %s: %v", idx, err)
		}
		if count != 1 {
			t.Errorf("index %s not found", idx)
		}
	}
}

func TestAssessmentRoundTrip(t *testing.T) {
	s := openTestStore(t)

	a := Assessment{
		ID:           "a-1",
		Source:       SourceQuiz,
		AnswersJSON:  `[0,1,2,3]`,
		KeywordsJSON: `[{"term":"react","weight":3}]`,
		CreatedAt:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := s.SaveAssessment(a); err != nil {
		t.Fatalf("SaveAssessment: %v", err)
	}

	got, err := s.GetAssessment("a-1")
	if err != nil {
		t.Fatalf("GetAssessment: %v", err)
	}
	if got.Source != SourceQuiz || got.KeywordsJSON != a.KeywordsJSON {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(a.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, a.CreatedAt)
	}
}

func TestGetAssessmentNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetAssessment("missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLatestAssessment(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		a := Assessment{
			ID:           fmt.Sprintf("a-%d", i),
			Source:       SourceQuiz,
			KeywordsJSON: fmt.Sprintf(`[{"term":"kw%d","weight":1}]`, i),
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.SaveAssessment(a); err != nil {
			t.Fatalf("SaveAssessment: %v", err)
		}
	}

	got, err := s.LatestAssessment()
	if err != nil {
		t.Fatalf("LatestAssessment: %v", err)
	}
	if got.ID != "a-2" {
		t.Errorf("latest id = %s, want a-2", got.ID)
	}
}

func TestLatestAssessmentKeywords(t *testing.T) {
	s := openTestStore(t)

	raw, ok, err := s.LatestAssessmentKeywords()
	if err != nil || ok {
		t.Fatalf("empty store: raw=%q ok=%v err=%v, want no assessment", raw, ok, err)
	}

	if err := s.SaveAssessment(Assessment{ID: "a-1", Source: SourceResume, KeywordsJSON: `[]`}); err != nil {
		t.Fatal(err)
	}
	raw, ok, err = s.LatestAssessmentKeywords()
	if err != nil || !ok || raw != `[]` {
		t.Errorf("raw=%q ok=%v err=%v, want [] true nil", raw, ok, err)
	}
}

func TestResumeDocRoundTrip(t *testing.T) {
	s := openTestStore(t)

	doc := ResumeDoc{ID: "r-1", Filename: "cv.pdf", Content: []byte("%PDF-1.4 data")}
	if err := s.SaveResumeDoc(doc); err != nil {
		t.Fatalf("SaveResumeDoc: %v", err)
	}

	got, err := s.GetResumeDoc("r-1")
	if err != nil {
		t.Fatalf("GetResumeDoc: %v", err)
	}
	if got.Filename != "cv.pdf" || string(got.Content) != "%PDF-1.4 data" {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if _, err := s.GetResumeDoc("missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestJobLifecycle(t *testing.T) {
	s := openTestStore(t)

	if err := s.EnqueueJob(Job{ID: "j-1", Type: "resume_extract", PayloadJSON: `{"resume_id":"r-1"}`}); err != nil {
		t.Fatalf("EnqueueJob: %v", err)
	}

	j, err := s.ClaimNextJob([]string{"resume_extract"})
	if err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if j == nil || j.ID != "j-1" || j.Status != "running" {
		t.Fatalf("claimed job = %+v", j)
	}

	// Nothing else pending.
	if j2, err := s.ClaimNextJob([]string{"resume_extract"}); err != nil || j2 != nil {
		t.Errorf("second claim = %+v, %v; want nil", j2, err)
	}

	if err := s.CompleteJob("j-1"); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}
}

func TestFailJobRetriesWithBackoff(t *testing.T) {
	s := openTestStore(t)

	if err := s.EnqueueJob(Job{ID: "j-1", Type: "resume_extract", MaxAttempts: 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ClaimNextJob([]string{"resume_extract"}); err != nil {
		t.Fatal(err)
	}

	// First failure: back to pending with a future run_after.
	if err := s.FailJob("j-1", "parse error"); err != nil {
		t.Fatalf("FailJob: %v", err)
	}
	var status string
	if err := s.db.QueryRow("SELECT status FROM jobs WHERE id = 'j-1'").Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != "pending" {
		t.Errorf("status after first failure = %s, want pending", status)
	}
	if j, err := s.ClaimNextJob([]string{"resume_extract"}); err != nil || j != nil {
		t.Errorf("job claimable before backoff elapsed: %+v, %v", j, err)
	}

	// Exhaust attempts.
	if _, err := s.db.Exec("UPDATE jobs SET run_after = '2000-01-01T00:00:00Z', status = 'pending' WHERE id = 'j-1'"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ClaimNextJob([]string{"resume_extract"}); err != nil {
		t.Fatal(err)
	}
	if err := s.FailJob("j-1", "parse error again"); err != nil {
		t.Fatal(err)
	}
	if err := s.db.QueryRow("SELECT status FROM jobs WHERE id = 'j-1'").Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != "failed" {
		t.Errorf("status after max attempts = %s, want failed", status)
	}
}

func TestClaimNextJobIgnoresOtherTypes(t *testing.T) {
	s := openTestStore(t)

	if err := s.EnqueueJob(Job{ID: "j-1", Type: "other"}); err != nil {
		t.Fatal(err)
	}
	if j, err := s.ClaimNextJob([]string{"resume_extract"}); err != nil || j != nil {
		t.Errorf("claimed job of wrong type: %+v, %v", j, err)
	}
}

func TestHistory(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		h := HistoryEntry{
			ID:           fmt.Sprintf("h-%d", i),
			KeywordsJSON: `["react"]`,
			ResultsJSON:  `[]`,
			Fetched:      5,
			Returned:     3,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveHistory(h); err != nil {
			t.Fatalf("SaveHistory: %v", err)
		}
	}

	entries, err := s.ListHistory(2)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID != "h-2" || entries[1].ID != "h-1" {
		t.Errorf("entries out of order: %s, %s", entries[0].ID, entries[1].ID)
	}
	if entries[0].Fetched != 5 || entries[0].Returned != 3 {
		t.Errorf("stats mismatch: %+v", entries[0])
	}
}
