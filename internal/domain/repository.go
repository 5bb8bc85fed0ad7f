package domain

import "context"

// JobRepository persists the observed history of submitted jobs.
type JobRepository interface {
	Create(ctx context.Context, job *JobRecord) error
	UpdateStatus(ctx context.Context, job Job) error
	GetByID(ctx context.Context, jobID string) (*JobRecord, error)
}
