package repo

import (
	"context"
	"fmt"

	"videogen/internal/domain"
	"videogen/internal/infra"
	"videogen/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// EnsureSchema creates the video_jobs table when missing.
func (r *JobRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QEnsureVideoJobs); err != nil {
		return fmt.Errorf("ensure video_jobs: %w", err)
	}
	return nil
}

// Create inserts a new job record. Re-inserting a known id is a no-op.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.JobRecord) error {
	status := job.Status
	if status == "" {
		status = domain.JobStatusPending
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertVideoJob,
		job.ID,
		job.UserID,
		job.Prompt,
		job.Model,
		string(status),
	)
	if err != nil {
		return fmt.Errorf("insert video job %s: %w", job.ID, err)
	}
	return nil
}

// UpdateStatus records the latest observed state of a job.
func (r *JobRepositoryPG) UpdateStatus(ctx context.Context, job domain.Job) error {
	job = job.Normalize()
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateVideoJobStatus,
		job.ID,
		string(job.Status),
		job.Result,
		job.FailureReason,
	)
	if err != nil {
		return fmt.Errorf("update video job %s: %w", job.ID, err)
	}
	return nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectVideoJob, jobID)
	var (
		job    domain.JobRecord
		status string
	)
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.Prompt,
		&job.Model,
		&status,
		&job.Result,
		&job.FailureReason,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
