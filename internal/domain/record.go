package domain

import "time"

// JobRecord is the persisted history row for a submitted job.
type JobRecord struct {
	ID            string
	UserID        string
	Prompt        string
	Model         string
	Status        JobStatus
	Result        string
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Artifact describes a downloaded result saved to local storage.
type Artifact struct {
	JobID      string
	SourceURL  string
	StorageKey string
	MIME       string
	Bytes      int64
}
