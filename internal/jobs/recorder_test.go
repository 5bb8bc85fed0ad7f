package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"videogen/internal/domain"
)

type memRepo struct {
	mu      sync.Mutex
	records map[string]*domain.JobRecord
	updates []domain.Job
	done    chan struct{}
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[string]*domain.JobRecord{}, done: make(chan struct{})}
}

func (m *memRepo) Create(_ context.Context, rec *domain.JobRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *memRepo) UpdateStatus(_ context.Context, job domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, job)
	if rec, ok := m.records[job.ID]; ok {
		rec.Status = job.Status
		rec.Result = job.Result
	}
	if job.Terminal() {
		close(m.done)
	}
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*domain.JobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func TestRecorderPersistsTransitions(t *testing.T) {
	fetcher := newScriptFetcher()
	fetcher.script("job_1",
		job(domain.JobStatusRunning),
		pollStep{job: domain.Job{Status: domain.JobStatusSucceeded, Result: "http://x/video.mp4"}},
	)
	repo := newMemRepo()
	rec := NewRecorder(context.Background(), repo, NewTracker(fetcher, WithPolicy(fastPolicy())), nil)
	defer rec.Close()

	if err := rec.Record(context.Background(), "user-1", "job_1", domain.PromptRequest{Prompt: "clown fish"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	select {
	case <-repo.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for terminal update")
	}

	owner, err := rec.Owner(context.Background(), "job_1")
	if err != nil || owner != "user-1" {
		t.Fatalf("owner = %q, %v", owner, err)
	}
	stored, _ := repo.GetByID(context.Background(), "job_1")
	if stored.Status != domain.JobStatusSucceeded || stored.Result != "http://x/video.mp4" || stored.Prompt != "clown fish" {
		t.Fatalf("unexpected record: %+v", stored)
	}
	if _, err := rec.Owner(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
