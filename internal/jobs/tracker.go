package jobs

import (
	"context"
	"sync"
	"time"

	"videogen/internal/domain"
	"videogen/internal/infra"
)

// StatusFetcher reads the current state of a remote job.
type StatusFetcher interface {
	Get(ctx context.Context, jobID string) (domain.Job, error)
}

// Callbacks receive state changes of an observed job. All callbacks run on
// the job's poll goroutine, one at a time. Any of them may be nil.
type Callbacks struct {
	// OnUpdate fires for every forward status change, the terminal one included.
	OnUpdate func(domain.Job)
	// OnTerminal fires once, after OnUpdate, when the job reaches a final state.
	OnTerminal func(domain.Job)
	// OnPollError reports failed polls that will be retried.
	OnPollError func(error)
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithPolicy sets the poll timing and give-up policy.
func WithPolicy(p Policy) TrackerOption {
	return func(t *Tracker) { t.policy = p }
}

// WithLogger sets the tracker logger.
func WithLogger(l *infra.Logger) TrackerOption {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithFinishedLimit caps how many finished job ids the tracker remembers.
// The oldest ids are forgotten first. n <= 0 turns the memory off.
func WithFinishedLimit(n int) TrackerOption {
	return func(t *Tracker) { t.finishedLimit = n }
}

// WithClock sets a custom clock function (for testing).
func WithClock(fn func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = fn }
}

// DefaultFinishedLimit is the number of finished job ids a Tracker remembers
// unless WithFinishedLimit says otherwise.
const DefaultFinishedLimit = 1024

// Tracker polls remote jobs until they reach a terminal state. One Tracker
// belongs to one caller context: it runs at most one poll loop per job id and
// remembers the most recent finished ids so they are not polled again.
type Tracker struct {
	fetcher       StatusFetcher
	policy        Policy
	logger        *infra.Logger
	now           func() time.Time
	finishedLimit int

	mu            sync.Mutex
	active        map[string]*Observation
	finished      map[string]domain.Job
	finishedOrder []string
}

// NewTracker creates a tracker reading job status from fetcher.
func NewTracker(fetcher StatusFetcher, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		fetcher:       fetcher,
		policy:        DefaultPolicy(),
		logger:        infra.DiscardLogger(),
		now:           time.Now,
		finishedLimit: DefaultFinishedLimit,
		active:        make(map[string]*Observation),
		finished:      make(map[string]domain.Job),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.policy.defaults()
	return t
}

// Observe starts polling jobID and returns its observation handle. Observing
// an id that is already being polled returns the existing handle and the new
// callbacks are ignored. Observing an id that already finished polls nothing,
// emits nothing and returns a handle that is already done. An observation
// that was cancelled but whose loop has not exited yet is replaced by a new
// one. Cancelling ctx stops the observation like Cancel does.
func (t *Tracker) Observe(ctx context.Context, jobID string, cb Callbacks) *Observation {
	t.mu.Lock()
	if obs, ok := t.active[jobID]; ok {
		if !obs.isStopped() {
			t.mu.Unlock()
			t.logger.Debug().Str("job_id", jobID).Msg("jobs: already tracking")
			return obs
		}
		t.logger.Debug().Str("job_id", jobID).Msg("jobs: replacing cancelled observation")
	}
	if job, ok := t.finished[jobID]; ok {
		t.mu.Unlock()
		t.logger.Debug().Str("job_id", jobID).Str("status", string(job.Status)).Msg("jobs: job already finished")
		return finishedObservation(job)
	}
	obsCtx, cancel := context.WithCancel(ctx)
	obs := &Observation{
		jobID:  jobID,
		cb:     cb,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	t.active[jobID] = obs
	t.mu.Unlock()

	go t.run(obsCtx, obs)
	return obs
}

// Tracking reports whether a live poll loop for jobID is running.
func (t *Tracker) Tracking(jobID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	obs, ok := t.active[jobID]
	return ok && !obs.isStopped()
}

// Close cancels every active observation and waits for their loops to exit.
func (t *Tracker) Close() {
	t.mu.Lock()
	active := make([]*Observation, 0, len(t.active))
	for _, obs := range t.active {
		active = append(active, obs)
	}
	t.mu.Unlock()
	for _, obs := range active {
		obs.Cancel()
		<-obs.Done()
	}
}

func (t *Tracker) run(ctx context.Context, obs *Observation) {
	defer t.release(obs)

	log := t.logger.With().Str("job_id", obs.jobID).Logger()
	started := t.now()
	failures := 0

	for {
		if obs.stoppedOrDone(ctx) {
			return
		}

		job, err := t.fetcher.Get(ctx, obs.jobID)
		if obs.stoppedOrDone(ctx) {
			log.Debug().Msg("jobs: discarding poll result after cancellation")
			return
		}

		wait := t.policy.Interval
		if err != nil {
			failures++
			pollErr := &domain.PollError{JobID: obs.jobID, Attempt: failures, Err: err}
			log.Warn().Err(err).Int("attempt", failures).Msg("jobs: poll failed")
			obs.reportPollError(ctx, pollErr)

			if t.policy.MaxErrors > 0 && failures >= t.policy.MaxErrors {
				t.abandon(ctx, obs, "too many consecutive poll errors", pollErr)
				return
			}
			wait = t.policy.backoff(failures)
		} else {
			failures = 0
			job.ID = obs.jobID
			if job.UpdatedAt.IsZero() {
				job.UpdatedAt = t.now()
			}
			job = job.Normalize()

			if obs.accept(job) {
				log.Debug().Str("status", string(job.Status)).Msg("jobs: status changed")
				if job.Terminal() {
					t.markFinished(job)
					obs.emit(ctx, job, true)
					log.Info().Str("status", string(job.Status)).Msg("jobs: job finished")
					return
				}
				obs.emit(ctx, job, false)
			}
		}

		if t.policy.MaxElapsed > 0 && t.now().Sub(started) >= t.policy.MaxElapsed {
			t.abandon(ctx, obs, "maximum tracking time exceeded", err)
			return
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// abandon stops tracking and reports the job to the caller as failed.
func (t *Tracker) abandon(ctx context.Context, obs *Observation, reason string, cause error) {
	trackErr := &domain.TrackingError{JobID: obs.jobID, Reason: reason, Err: cause}
	t.logger.Error().Err(trackErr).Str("job_id", obs.jobID).Msg("jobs: tracking abandoned")
	obs.setErr(trackErr)
	job := domain.Job{
		ID:            obs.jobID,
		Status:        domain.JobStatusFailed,
		FailureReason: trackErr.Error(),
		UpdatedAt:     t.now(),
	}
	if obs.accept(job) {
		obs.emit(ctx, job, true)
	}
}

func (t *Tracker) markFinished(job domain.Job) {
	if t.finishedLimit <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.finished[job.ID]; !ok {
		t.finishedOrder = append(t.finishedOrder, job.ID)
	}
	t.finished[job.ID] = job
	for len(t.finishedOrder) > t.finishedLimit {
		delete(t.finished, t.finishedOrder[0])
		t.finishedOrder = t.finishedOrder[1:]
	}
}

func (t *Tracker) release(obs *Observation) {
	t.mu.Lock()
	if t.active[obs.jobID] == obs {
		delete(t.active, obs.jobID)
	}
	t.mu.Unlock()
	obs.cancel()
	close(obs.done)
}

// Observation is the handle for one observed job. Cancel is the only way to
// stop observing early.
type Observation struct {
	jobID  string
	cb     Callbacks
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
	last    domain.Job
	seen    bool
	err     error
}

func finishedObservation(job domain.Job) *Observation {
	done := make(chan struct{})
	close(done)
	return &Observation{
		jobID:   job.ID,
		cancel:  func() {},
		done:    done,
		stopped: true,
		last:    job,
		seen:    true,
	}
}

// JobID returns the observed job id.
func (o *Observation) JobID() string { return o.jobID }

// Cancel stops the observation. Once it returns no further poll is issued and
// a poll already in flight is discarded when it completes. A callback that is
// already being delivered may still run to completion; after Done is closed
// no callback runs. Cancel is safe to call more than once and from callbacks.
func (o *Observation) Cancel() {
	o.mu.Lock()
	o.stopped = true
	o.mu.Unlock()
	o.cancel()
}

// Done is closed when the poll loop has exited.
func (o *Observation) Done() <-chan struct{} { return o.done }

// Err returns the *domain.TrackingError when polling was abandoned.
func (o *Observation) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Last returns the latest state delivered for the job.
func (o *Observation) Last() (domain.Job, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last, o.seen
}

func (o *Observation) isStopped() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopped
}

func (o *Observation) stoppedOrDone(ctx context.Context) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopped || ctx.Err() != nil
}

// accept records job as the latest state when it is a legal forward move.
// Repeats, regressions and anything after a terminal state are rejected.
func (o *Observation) accept(job domain.Job) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return false
	}
	var from domain.JobStatus
	if o.seen {
		from = o.last.Status
	}
	if !domain.CanTransition(from, job.Status) {
		return false
	}
	o.last = job
	o.seen = true
	return true
}

func (o *Observation) emit(ctx context.Context, job domain.Job, terminal bool) {
	if o.stoppedOrDone(ctx) {
		return
	}
	if o.cb.OnUpdate != nil {
		o.cb.OnUpdate(job)
	}
	if terminal && o.cb.OnTerminal != nil && !o.stoppedOrDone(ctx) {
		o.cb.OnTerminal(job)
	}
}

func (o *Observation) reportPollError(ctx context.Context, err error) {
	if o.cb.OnPollError == nil || o.stoppedOrDone(ctx) {
		return
	}
	o.cb.OnPollError(err)
}

func (o *Observation) setErr(err error) {
	o.mu.Lock()
	o.err = err
	o.mu.Unlock()
}
