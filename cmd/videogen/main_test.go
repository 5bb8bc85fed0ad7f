package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"videogen/internal/domain"
	"videogen/internal/infra"
	"videogen/internal/providers/video"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig() *infra.Config {
	return &infra.Config{
		PollInterval:   time.Millisecond,
		PollMaxErrors:  3,
		PollMaxBackoff: 2 * time.Millisecond,
	}
}

func TestRunSyntheticHappyPath(t *testing.T) {
	var out syncBuffer
	logger := zerolog.Nop()
	provider := video.NewSynthetic(video.SyntheticOptions{RunningPolls: 2})

	code := run(context.Background(), testConfig(), provider, &logger, newPrinter("en"), &out, options{prompt: "clown fish swimming in a coral reef"})
	if code != exitOK {
		t.Fatalf("exit code = %d, output:\n%s", code, out.String())
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != "Initializing..." || lines[1] != "Generating video..." || !strings.HasPrefix(lines[2], "Video ready: https://") {
		t.Fatalf("unexpected output %q", lines)
	}
}

func TestRunDownloadsResult(t *testing.T) {
	assets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte("mp4"))
	}))
	defer assets.Close()

	dir := t.TempDir()
	var out syncBuffer
	logger := zerolog.Nop()
	provider := video.NewSynthetic(video.SyntheticOptions{AssetBaseURL: assets.URL, RunningPolls: 1})

	code := run(context.Background(), testConfig(), provider, &logger, newPrinter("en"), &out, options{prompt: "clown fish", outDir: dir})
	if code != exitOK {
		t.Fatalf("exit code = %d, output:\n%s", code, out.String())
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "videos", "*", "video.mp4"))
	if len(matches) != 1 {
		t.Fatalf("downloaded files = %v", matches)
	}
	data, _ := os.ReadFile(matches[0])
	if string(data) != "mp4" {
		t.Fatalf("file content = %q", data)
	}
	if !strings.Contains(out.String(), "Saved to ") {
		t.Fatalf("missing saved line:\n%s", out.String())
	}
}

type deniedProvider struct{ video.Provider }

func (deniedProvider) Create(context.Context, domain.PromptRequest) (string, error) {
	return "", &domain.AuthorizationError{StatusCode: http.StatusForbidden, Message: "free trial has expired"}
}

func TestRunEntitlementDenied(t *testing.T) {
	var out syncBuffer
	logger := zerolog.Nop()

	code := run(context.Background(), testConfig(), deniedProvider{}, &logger, newPrinter("id"), &out, options{prompt: "clown fish"})
	if code != exitDenied {
		t.Fatalf("exit code = %d", code)
	}
	if got := strings.TrimSpace(out.String()); got != "Perlu upgrade: free trial has expired" {
		t.Fatalf("output = %q", got)
	}
}

// stuckProvider never leaves running and records remote cancels.
type stuckProvider struct {
	mu       sync.Mutex
	canceled []string
}

func (p *stuckProvider) Create(context.Context, domain.PromptRequest) (string, error) {
	return "job_1", nil
}

func (p *stuckProvider) Get(_ context.Context, id string) (domain.Job, error) {
	return domain.Job{ID: id, Status: domain.JobStatusRunning}, nil
}

func (p *stuckProvider) Cancel(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.canceled = append(p.canceled, id)
	return nil
}

func TestRunInterruptCancelsRemote(t *testing.T) {
	var out syncBuffer
	logger := zerolog.Nop()
	provider := &stuckProvider{}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	code := run(ctx, testConfig(), provider, &logger, newPrinter("en"), &out, options{prompt: "clown fish", cancelRemote: true})
	if code != exitFailed {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out.String(), "Stopped watching job job_1") {
		t.Fatalf("output:\n%s", out.String())
	}
	provider.mu.Lock()
	defer provider.mu.Unlock()
	if len(provider.canceled) != 1 || provider.canceled[0] != "job_1" {
		t.Fatalf("canceled = %v", provider.canceled)
	}
}
