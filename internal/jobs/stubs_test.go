package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"videogen/internal/domain"
)

// fastPolicy keeps tests quick while leaving the error cap in place.
func fastPolicy() Policy {
	return Policy{Interval: time.Millisecond, MaxErrors: 5, MaxBackoff: 2 * time.Millisecond}
}

type pollStep struct {
	job domain.Job
	err error
}

// scriptFetcher replays steps per job id and repeats the last one forever.
type scriptFetcher struct {
	mu       sync.Mutex
	steps    map[string][]pollStep
	calls    map[string]int
	inFlight int
	maxIn    int
}

func newScriptFetcher() *scriptFetcher {
	return &scriptFetcher{steps: map[string][]pollStep{}, calls: map[string]int{}}
}

func (f *scriptFetcher) script(id string, steps ...pollStep) {
	f.mu.Lock()
	f.steps[id] = steps
	f.mu.Unlock()
}

func (f *scriptFetcher) Get(ctx context.Context, id string) (domain.Job, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxIn {
		f.maxIn = f.inFlight
	}
	n := f.calls[id]
	f.calls[id] = n + 1
	steps := f.steps[id]
	f.mu.Unlock()

	time.Sleep(100 * time.Microsecond)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if len(steps) == 0 {
		return domain.Job{}, domain.ErrNotFound
	}
	if n >= len(steps) {
		n = len(steps) - 1
	}
	step := steps[n]
	return step.job, step.err
}

func (f *scriptFetcher) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *scriptFetcher) maxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxIn
}

// gateFetcher blocks every poll until release is closed and ignores ctx.
type gateFetcher struct {
	started chan string
	release chan struct{}
	job     domain.Job

	mu    sync.Mutex
	calls int
}

func newGateFetcher(job domain.Job) *gateFetcher {
	return &gateFetcher{started: make(chan string, 16), release: make(chan struct{}), job: job}
}

func (g *gateFetcher) Get(_ context.Context, id string) (domain.Job, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	g.started <- id
	<-g.release
	job := g.job
	job.ID = id
	return job, nil
}

func (g *gateFetcher) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// recorder collects callback invocations.
type recorder struct {
	mu        sync.Mutex
	updates   []domain.Job
	terminals []domain.Job
	pollErrs  []error
	done      chan struct{}
	once      sync.Once
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnUpdate: func(j domain.Job) {
			r.mu.Lock()
			r.updates = append(r.updates, j)
			r.mu.Unlock()
		},
		OnTerminal: func(j domain.Job) {
			r.mu.Lock()
			r.terminals = append(r.terminals, j)
			r.mu.Unlock()
			r.once.Do(func() { close(r.done) })
		},
		OnPollError: func(err error) {
			r.mu.Lock()
			r.pollErrs = append(r.pollErrs, err)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) snapshot() ([]domain.Job, []domain.Job, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Job(nil), r.updates...),
		append([]domain.Job(nil), r.terminals...),
		append([]error(nil), r.pollErrs...)
}

func waitTerminal(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for terminal state")
	}
}

func waitDone(t *testing.T, obs *Observation) {
	t.Helper()
	select {
	case <-obs.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for observation to stop")
	}
}

// stubCreator hands out ids in order or fails with err.
type stubCreator struct {
	mu    sync.Mutex
	ids   []string
	err   error
	calls int
	last  domain.PromptRequest
}

func (c *stubCreator) Create(_ context.Context, req domain.PromptRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.last = req
	if c.err != nil {
		return "", c.err
	}
	if len(c.ids) == 0 {
		return "", errors.New("no ids left")
	}
	id := c.ids[0]
	c.ids = c.ids[1:]
	return id, nil
}

func (c *stubCreator) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func job(status domain.JobStatus) pollStep {
	return pollStep{job: domain.Job{Status: status}}
}
