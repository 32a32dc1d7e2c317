package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Assessment sources.
const (
	SourceQuiz   = "quiz"
	SourceResume = "resume"
	SourceManual = "manual"
)

// Assessment is one completed skill assessment. The newest assessment
// defines the active profile.
type Assessment struct {
	ID           string
	Source       string // "quiz", "resume", "manual"
	AnswersJSON  string // raw quiz selections, empty for non-quiz sources
	KeywordsJSON string // weighted keywords as JSON
	CreatedAt    time.Time
}

// ResumeDoc is an uploaded resume retained for background extraction.
type ResumeDoc struct {
	ID        string
	Filename  string
	Content   []byte
	CreatedAt time.Time
}

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}

// HistoryEntry records one recommendation run for later review. It is
// served as-is from the history endpoint.
type HistoryEntry struct {
	ID           string    `json:"id"`
	KeywordsJSON string    `json:"keywords"`
	ResultsJSON  string    `json:"results"`
	Fetched      int       `json:"fetched"`
	Dropped      int       `json:"dropped"`
	Returned     int       `json:"returned"`
	CreatedAt    time.Time `json:"created_at"`
}
