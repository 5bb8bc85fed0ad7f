package jobs

import (
	"context"
	"errors"
	"sync"

	"videogen/internal/domain"
)

// ErrSuperseded is returned by Generate when a newer Generate or a Stop ran
// while the submission was in flight. The returned id is valid but the job
// is not observed.
var ErrSuperseded = errors.New("jobs: submission superseded")

// Session is the caller-owned slot for the job currently on screen. Starting a
// new generation cancels the observation of the previous one before anything
// else happens, so late updates of an old job never reach the caller.
type Session struct {
	submitter *Submitter
	tracker   *Tracker

	mu      sync.Mutex
	gen     uint64
	jobID   string
	current *Observation
}

// NewSession binds a submitter and a tracker.
func NewSession(submitter *Submitter, tracker *Tracker) *Session {
	return &Session{submitter: submitter, tracker: tracker}
}

// Generate supersedes the current job, submits req and starts observing the
// new job with cb. Errors from Submit are returned unchanged and leave the
// session empty.
func (s *Session) Generate(ctx context.Context, req domain.PromptRequest, cb Callbacks) (string, error) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	prev := s.current
	s.current = nil
	s.jobID = ""
	s.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}

	id, err := s.submitter.Submit(ctx, req)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return id, ErrSuperseded
	}
	s.jobID = id
	s.current = s.tracker.Observe(ctx, id, cb)
	return id, nil
}

// Stop cancels the current observation and clears the slot.
func (s *Session) Stop() {
	s.mu.Lock()
	s.gen++
	obs := s.current
	s.current = nil
	s.jobID = ""
	s.mu.Unlock()

	if obs != nil {
		obs.Cancel()
	}
}

// Current returns the observed job id and its handle, or nil when idle.
func (s *Session) Current() (string, *Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobID, s.current
}

// Latest returns the last state delivered for the current job.
func (s *Session) Latest() (domain.Job, bool) {
	_, obs := s.Current()
	if obs == nil {
		return domain.Job{}, false
	}
	return obs.Last()
}
