package jobs

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// InterruptedReason is recorded on jobs still running when the service restarts.
const InterruptedReason = "interrupted by service restart"

var allStatuses = []Status{StatusRunning, StatusCompleted, StatusFailed}

// ParseStatus converts a user-supplied status name.
func ParseStatus(raw string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Job is one row of the ledger.
type Job struct {
	ID           string     `json:"id"`
	Filename     string     `json:"filename"`
	Bytes        int64      `json:"bytes"`
	Status       Status     `json:"status"`
	Backend      string     `json:"backend,omitempty"`
	LanguageHint string     `json:"language_hint,omitempty"`
	Diarization  string     `json:"diarization,omitempty"`
	Language     string     `json:"language,omitempty"`
	AudioSeconds float64    `json:"audio_seconds"`
	Chunks       int        `json:"chunks"`
	FailedChunks int        `json:"failed_chunks"`
	Segments     int        `json:"segments"`
	ErrorKind    string     `json:"error_kind,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Elapsed returns the wall time between creation and completion, or zero
// while the job is running.
func (j *Job) Elapsed() time.Duration {
	if j == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(j.CreatedAt)
}

// NewJob describes an incoming request.
type NewJob struct {
	Filename     string
	Bytes        int64
	Backend      string
	LanguageHint string
	Diarization  string
}

// Outcome is what a successful pipeline run reports back to the ledger.
type Outcome struct {
	Language     string
	AudioSeconds float64
	Chunks       int
	FailedChunks int
	Segments     int
}

// Summary aggregates job counts by status.
type Summary struct {
	Total     int `json:"total"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}
