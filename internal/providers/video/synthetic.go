package video

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"videogen/internal/domain"
	"videogen/internal/infra"
)

// Synthetic is an in-memory Provider used when no remote credentials are
// configured. Each job reports pending on its first poll, running for
// RunningPolls polls and then succeeds with a deterministic asset URL, so the
// whole submit and track flow can run locally.
type Synthetic struct {
	baseURL      string
	runningPolls int
	logger       *infra.Logger

	mu   sync.Mutex
	jobs map[string]*syntheticJob
}

type syntheticJob struct {
	prompt   string
	polls    int
	canceled bool
	finished bool
}

// SyntheticOptions configures the synthetic provider.
type SyntheticOptions struct {
	AssetBaseURL string
	RunningPolls int
	Logger       *infra.Logger
}

// NewSynthetic constructs a synthetic provider.
func NewSynthetic(opts SyntheticOptions) *Synthetic {
	baseURL := strings.TrimRight(opts.AssetBaseURL, "/")
	if baseURL == "" {
		baseURL = "https://cdn.example.com/synthetic"
	}
	running := opts.RunningPolls
	if running <= 0 {
		running = 2
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Synthetic{baseURL: baseURL, runningPolls: running, logger: logger, jobs: make(map[string]*syntheticJob)}
}

func (s *Synthetic) Create(ctx context.Context, req domain.PromptRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", &domain.ValidationError{Message: "prompt is required", Err: domain.ErrEmptyPrompt}
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.jobs[id] = &syntheticJob{prompt: prompt}
	s.mu.Unlock()
	s.logger.Debug().Str("job_id", id).Msg("synthetic: job created")
	return id, nil
}

func (s *Synthetic) Get(ctx context.Context, jobID string) (domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return domain.Job{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return domain.Job{}, fmt.Errorf("synthetic: job %s: %w", jobID, domain.ErrNotFound)
	}
	j.polls++
	job := domain.Job{ID: jobID, UpdatedAt: time.Now()}
	switch {
	case j.canceled:
		job.Status = domain.JobStatusCanceled
	case j.polls == 1:
		job.Status = domain.JobStatusPending
	case j.polls <= 1+s.runningPolls:
		job.Status = domain.JobStatusRunning
	default:
		j.finished = true
		job.Status = domain.JobStatusSucceeded
		job.Result = fmt.Sprintf("%s/%s/video.mp4", s.baseURL, deterministicSeed(jobID, j.prompt))
	}
	return job.Normalize(), nil
}

func (s *Synthetic) Cancel(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("synthetic: job %s: %w", jobID, domain.ErrNotFound)
	}
	if !j.finished {
		j.canceled = true
	}
	return nil
}

func deterministicSeed(parts ...string) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(part))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

var (
	_ Provider = (*Synthetic)(nil)
	_ Canceler = (*Synthetic)(nil)
)
