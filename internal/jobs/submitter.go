// Package jobs submits remote video generation jobs and tracks them to a
// terminal state.
package jobs

import (
	"context"
	"errors"
	"strings"

	"videogen/internal/domain"
	"videogen/internal/infra"
)

// Creator starts a remote job and returns its id.
type Creator interface {
	Create(ctx context.Context, req domain.PromptRequest) (string, error)
}

// Submitter forwards prompt requests to a remote job-creation endpoint. It
// performs exactly one remote call per Submit and never retries, so at most
// one job is created per call.
type Submitter struct {
	creator Creator
	logger  *infra.Logger
}

// NewSubmitter wires a submitter around creator. A nil logger discards output.
func NewSubmitter(creator Creator, logger *infra.Logger) *Submitter {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Submitter{creator: creator, logger: logger}
}

// Submit creates a remote job. Errors are one of *domain.ValidationError,
// *domain.AuthorizationError, *domain.TransportError or a context error.
func (s *Submitter) Submit(ctx context.Context, req domain.PromptRequest) (string, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		return "", &domain.ValidationError{Message: "prompt is required", Err: domain.ErrEmptyPrompt}
	}

	id, err := s.creator.Create(ctx, req)
	if err != nil {
		err = classify(ctx, err)
		if domain.IsAuthorization(err) {
			s.logger.Info().Err(err).Msg("jobs: submit denied")
		} else {
			s.logger.Warn().Err(err).Msg("jobs: submit failed")
		}
		return "", err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", &domain.TransportError{Op: "submit job", Err: errors.New("empty job id")}
	}

	s.logger.Info().Str("job_id", id).Msg("jobs: submitted")
	return id, nil
}

// classify keeps the submitter's error contract even when a Creator returns
// an unclassified error.
func classify(ctx context.Context, err error) error {
	switch {
	case domain.IsAuthorization(err), domain.IsValidation(err), domain.IsTransport(err):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		if ctx.Err() != nil {
			return err
		}
	}
	return &domain.TransportError{Op: "submit job", Err: err}
}
