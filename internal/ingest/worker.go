package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/goodfirst/goodfirst/internal/skills"
	"github.com/goodfirst/goodfirst/internal/storage"
)

// jobTypeResumeExtract is the queue type for resume skill extraction.
const jobTypeResumeExtract = "resume_extract"

// ErrNoSkillsFound means the resume text matched nothing in the skill
// vocabulary.
var ErrNoSkillsFound = errors.New("no recognizable skills found in resume")

// JobStore abstracts the storage operations the worker needs.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
	GetResumeDoc(id string) (storage.ResumeDoc, error)
	SaveAssessment(a storage.Assessment) error
}

// ProfileCache is notified when a new assessment lands. Implemented by
// skills.Manager.
type ProfileCache interface {
	Invalidate()
}

// Worker processes resume_extract jobs from the SQLite job queue.
type Worker struct {
	store    JobStore
	taxonomy skills.Taxonomy
	cache    ProfileCache
	topK     int
	poll     time.Duration
	logger   *slog.Logger
}

// NewWorker creates a Worker with the given dependencies.
// If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(store JobStore, taxonomy skills.Taxonomy, cache ProfileCache, topK int, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if topK <= 0 {
		topK = skills.DefaultTopK
	}
	return &Worker{
		store:    store,
		taxonomy: taxonomy,
		cache:    cache,
		topK:     topK,
		poll:     pollInterval,
		logger:   slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single resume_extract job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{jobTypeResumeExtract})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("job failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

type extractPayload struct {
	ResumeID string `json:"resume_id"`
}

func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	var payload extractPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	doc, err := w.store.GetResumeDoc(payload.ResumeID)
	if err != nil {
		return fmt.Errorf("loading resume %s: %w", payload.ResumeID, err)
	}

	text, err := extractText(doc.Content)
	if err != nil {
		return fmt.Errorf("extracting text from %s: %w", doc.Filename, err)
	}

	profile := w.taxonomy.FromText(text, w.topK)
	if profile.Empty() {
		return ErrNoSkillsFound
	}

	keywordsJSON, err := json.Marshal(profile.Keywords)
	if err != nil {
		return fmt.Errorf("encoding keywords: %w", err)
	}

	assessment := storage.Assessment{
		ID:           uuid.New().String(),
		Source:       storage.SourceResume,
		KeywordsJSON: string(keywordsJSON),
		CreatedAt:    time.Now().UTC(),
	}
	if err := w.store.SaveAssessment(assessment); err != nil {
		return fmt.Errorf("saving assessment: %w", err)
	}

	if w.cache != nil {
		w.cache.Invalidate()
	}
	w.logger.Info("resume processed", "resume_id", doc.ID, "skills", len(profile.Keywords))
	return nil
}

// extractText pulls plain text out of a resume. PDF content is detected
// by its magic prefix; anything else is treated as already-plain text.
func extractText(content []byte) (string, error) {
	if !bytes.HasPrefix(content, []byte("%PDF")) {
		return string(content), nil
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}
	r, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	var b strings.Builder
	if _, err := io.Copy(&b, r); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return b.String(), nil
}
