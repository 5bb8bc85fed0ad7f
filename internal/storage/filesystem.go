// Package storage saves generated videos onto the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"videogen/internal/domain"
)

// FileStore keeps downloaded artifacts under a root directory.
type FileStore struct {
	basePath   string
	httpClient *http.Client
}

// NewFileStore initializes a FileStore rooted at basePath. A nil client uses a
// client with a generous timeout since videos are large.
func NewFileStore(basePath string, client *http.Client) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	return &FileStore{basePath: basePath, httpClient: client}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Path returns the absolute location of key.
func (s *FileStore) Path(key string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(cleanKey)), nil
}

// Write streams r into the file at key and returns the canonical key and the
// number of bytes written. The file appears only once fully written.
func (s *FileStore) Write(ctx context.Context, key string, r io.Reader) (string, int64, error) {
	if s == nil {
		return "", 0, errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", 0, err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", 0, fmt.Errorf("storage: ensure directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".partial-*")
	if err != nil {
		return "", 0, fmt.Errorf("storage: create temp file: %w", err)
	}
	n, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("storage: write file: %w", copyErr)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		_ = os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("storage: move file: %w", err)
	}
	return cleanKey, n, nil
}

// SaveResult downloads the result of a succeeded job to videos/{job id}/{name}.
func (s *FileStore) SaveResult(ctx context.Context, job domain.Job) (domain.Artifact, error) {
	if job.Status != domain.JobStatusSucceeded || job.Result == "" {
		return domain.Artifact{}, fmt.Errorf("storage: job %s has no result", job.ID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.Result, nil)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("storage: build request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("storage: download %s: %w", job.Result, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Artifact{}, fmt.Errorf("storage: download %s: status %d", job.Result, resp.StatusCode)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}
	key := path.Join("videos", job.ID, resultName(job.Result, mimeType))
	storageKey, n, err := s.Write(ctx, key, resp.Body)
	if err != nil {
		return domain.Artifact{}, err
	}
	return domain.Artifact{
		JobID:      job.ID,
		SourceURL:  job.Result,
		StorageKey: storageKey,
		MIME:       mimeType,
		Bytes:      n,
	}, nil
}

// resultName picks a file name from the URL path, falling back to one derived
// from the content type.
func resultName(rawURL, mimeType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			return base
		}
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return "output" + exts[0]
	}
	return "output.mp4"
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}
