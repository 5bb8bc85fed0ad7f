package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"videogen/internal/domain"
)

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "videos/job_1/out.mp4", want: "videos/job_1/out.mp4"},
		{key: "./videos//job_1/../job_2/out.mp4", want: "videos/job_2/out.mp4"},
		{key: "/abs/path.mp4", want: "abs/path.mp4"},
		{key: `videos\job_1\out.mp4`, want: "videos/job_1/out.mp4"},
		{key: "../escape.mp4", wantErr: true},
		{key: "..", wantErr: true},
		{key: "   ", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			got, err := sanitizeKey(tc.key)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("sanitizeKey(%q) = %q, %v; want %q", tc.key, got, err, tc.want)
			}
		})
	}
}

func TestSaveResultDownloadsVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/job_1/clip.mp4" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte("fake-mp4-bytes"))
	}))
	defer srv.Close()

	store, err := NewFileStore(t.TempDir(), srv.Client())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	job := domain.Job{ID: "job_1", Status: domain.JobStatusSucceeded, Result: srv.URL + "/files/job_1/clip.mp4"}
	art, err := store.SaveResult(context.Background(), job)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if art.StorageKey != "videos/job_1/clip.mp4" || art.MIME != "video/mp4" || art.Bytes != int64(len("fake-mp4-bytes")) {
		t.Fatalf("unexpected artifact: %+v", art)
	}
	data, err := os.ReadFile(filepath.Join(store.BasePath(), "videos", "job_1", "clip.mp4"))
	if err != nil || string(data) != "fake-mp4-bytes" {
		t.Fatalf("stored file = %q, %v", data, err)
	}
	entries, _ := os.ReadDir(filepath.Join(store.BasePath(), "videos", "job_1"))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".partial-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestSaveResultRejectsUnfinishedJob(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.SaveResult(context.Background(), domain.Job{ID: "job_1", Status: domain.JobStatusRunning}); err == nil {
		t.Fatalf("expected error for running job")
	}
}

func TestSaveResultHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	store, _ := NewFileStore(t.TempDir(), srv.Client())
	job := domain.Job{ID: "job_1", Status: domain.JobStatusSucceeded, Result: srv.URL + "/clip.mp4"}
	if _, err := store.SaveResult(context.Background(), job); err == nil {
		t.Fatalf("expected download error")
	}
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	if _, err := NewFileStore(" ", nil); err == nil {
		t.Fatalf("expected error")
	}
}
