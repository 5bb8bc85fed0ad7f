package domain

import (
	"strings"
	"time"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// DefaultFailureReason is used when a provider reports a failure without a cause.
const DefaultFailureReason = "video generation failed"

// IsTerminal reports whether no further transition can leave the status.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed, JobStatusCanceled:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	return s.rank() >= 0
}

func (s JobStatus) rank() int {
	switch s {
	case JobStatusPending:
		return 0
	case JobStatusRunning:
		return 1
	case JobStatusSucceeded, JobStatusFailed, JobStatusCanceled:
		return 2
	default:
		return -1
	}
}

// CanTransition reports whether a job may move from one status to another.
// An empty from means nothing has been observed yet. Moves only go forward and
// terminal states are absorbing.
func CanTransition(from, to JobStatus) bool {
	if !to.Valid() {
		return false
	}
	if from == "" {
		return true
	}
	if from.IsTerminal() {
		return false
	}
	return to.rank() > from.rank()
}

// ParseJobStatus maps provider status names onto JobStatus.
func ParseJobStatus(raw string) (JobStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "starting", "queued", "accepted":
		return JobStatusPending, true
	case "running", "processing":
		return JobStatusRunning, true
	case "succeeded", "successful", "completed":
		return JobStatusSucceeded, true
	case "failed", "error":
		return JobStatusFailed, true
	case "canceled", "cancelled":
		return JobStatusCanceled, true
	default:
		return "", false
	}
}

// PromptRequest is the payload accepted by the submitter.
type PromptRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

// Job is one remote generation request as seen by the caller.
type Job struct {
	ID            string    `json:"id"`
	Status        JobStatus `json:"status"`
	Result        string    `json:"result,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Normalize clears fields that do not belong to the job's status so that a
// result only exists on success and a failure reason only on failure.
func (j Job) Normalize() Job {
	switch j.Status {
	case JobStatusSucceeded:
		j.FailureReason = ""
	case JobStatusFailed:
		j.Result = ""
		if strings.TrimSpace(j.FailureReason) == "" {
			j.FailureReason = DefaultFailureReason
		}
	default:
		j.Result = ""
		j.FailureReason = ""
	}
	return j
}

// Terminal reports whether the job reached a final state.
func (j Job) Terminal() bool {
	return j.Status.IsTerminal()
}
