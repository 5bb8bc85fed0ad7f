package jobs

import (
	"context"
	"fmt"

	"videogen/internal/domain"
	"videogen/internal/infra"
)

// Recorder keeps a server-side history of submitted jobs. Each recorded job is
// observed on the recorder's own tracker until it finishes and every status
// change is written to the repository.
type Recorder struct {
	repo    domain.JobRepository
	tracker *Tracker
	base    context.Context
	logger  *infra.Logger
}

// NewRecorder creates a recorder. base bounds the lifetime of every
// observation; cancel it on shutdown.
func NewRecorder(base context.Context, repo domain.JobRepository, tracker *Tracker, logger *infra.Logger) *Recorder {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Recorder{repo: repo, tracker: tracker, base: base, logger: logger}
}

// Record stores the submitted job and starts following it.
func (r *Recorder) Record(ctx context.Context, userID, jobID string, req domain.PromptRequest) error {
	rec := &domain.JobRecord{
		ID:     jobID,
		UserID: userID,
		Prompt: req.Prompt,
		Model:  req.Model,
		Status: domain.JobStatusPending,
	}
	if err := r.repo.Create(ctx, rec); err != nil {
		return fmt.Errorf("record job: %w", err)
	}
	r.tracker.Observe(r.base, jobID, Callbacks{
		OnUpdate: func(job domain.Job) {
			if err := r.repo.UpdateStatus(r.base, job); err != nil {
				r.logger.Error().Err(err).Str("job_id", job.ID).Msg("jobs: persist status failed")
			}
		},
	})
	return nil
}

// Owner returns the user that submitted jobID. Unknown ids yield
// domain.ErrNotFound.
func (r *Recorder) Owner(ctx context.Context, jobID string) (string, error) {
	rec, err := r.repo.GetByID(ctx, jobID)
	if err != nil {
		return "", err
	}
	return rec.UserID, nil
}

// Close stops following every recorded job.
func (r *Recorder) Close() {
	r.tracker.Close()
}
