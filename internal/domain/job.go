package domain

import "time"

// JobStatus is the lifecycle state of a summarization job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Valid reports whether s is one of the known job statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s is a final state. Terminal jobs are immutable.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// validTransitions is the one-directional state machine:
// pending -> processing -> {completed, failed}.
var validTransitions = map[JobStatus][]JobStatus{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

// ValidTransition reports whether moving from one status to another is
// allowed. Backward moves and skipping processing are rejected.
func ValidTransition(from, to JobStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Job is the unit of trackable work, created on submission and mutated by
// exactly one worker until it reaches a terminal state.
type Job struct {
	ID          string     `json:"job_id"`
	Status      JobStatus  `json:"status"`
	Text        string     `json:"text,omitempty"`
	AudioRef    string     `json:"audio_ref,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskMessage is the queue payload handed to workers.
type TaskMessage struct {
	JobID string `json:"job_id"`
}
