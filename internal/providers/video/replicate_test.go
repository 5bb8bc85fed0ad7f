package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"videogen/internal/domain"
)

type captureTransport struct {
	responses map[string]responseStub
	lastBody  []byte
	lastAuth  string
	calls     int
	err       error
}

type responseStub struct {
	status int
	body   []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.calls++
	c.lastAuth = req.Header.Get("Authorization")
	if c.err != nil {
		return nil, c.err
	}
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
	}
	key := req.Method + " " + req.URL.Path
	if stub, ok := c.responses[key]; ok {
		return &http.Response{
			StatusCode: stub.status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(bytes.NewReader(stub.body)),
		}, nil
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader(`{"detail":"not found"}`)),
	}, nil
}

func (c *captureTransport) set(key string, status int, payload any) {
	body, _ := json.Marshal(payload)
	c.responses[key] = responseStub{status: status, body: body}
}

func newTestReplicate(t *testing.T, transport *captureTransport) *Replicate {
	t.Helper()
	client, err := NewReplicate(ReplicateOptions{
		APIToken:     "r8_test",
		BaseURL:      "https://replicate.test/v1/",
		ModelVersion: "zeroscope",
		HTTPClient:   &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewReplicateRequiresToken(t *testing.T) {
	if _, err := NewReplicate(ReplicateOptions{APIToken: "  "}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestReplicateCreatePayload(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.set("POST /v1/predictions", http.StatusCreated, map[string]any{"id": "job_1", "status": "starting"})
	client := newTestReplicate(t, transport)

	id, err := client.Create(context.Background(), domain.PromptRequest{Prompt: " clown fish swimming in a coral reef "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "job_1" {
		t.Fatalf("id = %q, want job_1", id)
	}
	if transport.lastAuth != "Bearer r8_test" {
		t.Fatalf("authorization = %q", transport.lastAuth)
	}
	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["version"] != "zeroscope" {
		t.Fatalf("version = %v, want zeroscope", payload["version"])
	}
	input := payload["input"].(map[string]any)
	if input["prompt"] != "clown fish swimming in a coral reef" {
		t.Fatalf("prompt = %v", input["prompt"])
	}
}

func TestReplicateCreateErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, domain.IsAuthorization},
		{"forbidden", http.StatusForbidden, domain.IsAuthorization},
		{"payment required", http.StatusPaymentRequired, domain.IsAuthorization},
		{"unprocessable", http.StatusUnprocessableEntity, domain.IsValidation},
		{"bad request", http.StatusBadRequest, domain.IsValidation},
		{"server error", http.StatusInternalServerError, domain.IsTransport},
		{"bad gateway", http.StatusBadGateway, domain.IsTransport},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			transport := &captureTransport{responses: map[string]responseStub{}}
			transport.set("POST /v1/predictions", tc.status, map[string]any{"detail": "nope"})
			client := newTestReplicate(t, transport)
			_, err := client.Create(context.Background(), domain.PromptRequest{Prompt: "x"})
			if err == nil || !tc.check(err) {
				t.Fatalf("unexpected error classification: %v", err)
			}
			if transport.calls != 1 {
				t.Fatalf("calls = %d, want exactly one attempt", transport.calls)
			}
		})
	}
}

func TestReplicateCreateNetworkError(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}, err: errors.New("dial tcp: connection refused")}
	client := newTestReplicate(t, transport)
	_, err := client.Create(context.Background(), domain.PromptRequest{Prompt: "x"})
	if !domain.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestReplicateCreateMissingID(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.set("POST /v1/predictions", http.StatusCreated, map[string]any{"status": "starting"})
	client := newTestReplicate(t, transport)
	if _, err := client.Create(context.Background(), domain.PromptRequest{Prompt: "x"}); !domain.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestReplicateGetNormalizesStatus(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    domain.Job
	}{
		{
			name:    "starting",
			payload: map[string]any{"id": "job_1", "status": "starting", "output": nil, "error": nil},
			want:    domain.Job{ID: "job_1", Status: domain.JobStatusPending},
		},
		{
			name:    "processing ignores partial output",
			payload: map[string]any{"id": "job_1", "status": "processing", "output": []any{"http://x/partial.mp4"}},
			want:    domain.Job{ID: "job_1", Status: domain.JobStatusRunning},
		},
		{
			name:    "succeeded list output",
			payload: map[string]any{"id": "job_1", "status": "succeeded", "output": []any{nil, "http://x/video.mp4"}},
			want:    domain.Job{ID: "job_1", Status: domain.JobStatusSucceeded, Result: "http://x/video.mp4"},
		},
		{
			name:    "succeeded string output",
			payload: map[string]any{"id": "job_1", "status": "succeeded", "output": "http://x/video.mp4"},
			want:    domain.Job{ID: "job_1", Status: domain.JobStatusSucceeded, Result: "http://x/video.mp4"},
		},
		{
			name:    "failed with error",
			payload: map[string]any{"id": "job_1", "status": "failed", "error": "CUDA out of memory"},
			want:    domain.Job{ID: "job_1", Status: domain.JobStatusFailed, FailureReason: "CUDA out of memory"},
		},
		{
			name:    "canceled",
			payload: map[string]any{"id": "job_1", "status": "canceled"},
			want:    domain.Job{ID: "job_1", Status: domain.JobStatusCanceled},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			transport := &captureTransport{responses: map[string]responseStub{}}
			transport.set("GET /v1/predictions/job_1", http.StatusOK, tc.payload)
			client := newTestReplicate(t, transport)
			got, err := client.Get(context.Background(), "job_1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.ID != tc.want.ID || got.Status != tc.want.Status || got.Result != tc.want.Result || got.FailureReason != tc.want.FailureReason {
				t.Fatalf("job = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestReplicateGetUnknownStatus(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.set("GET /v1/predictions/job_1", http.StatusOK, map[string]any{"id": "job_1", "status": "teleporting"})
	client := newTestReplicate(t, transport)
	if _, err := client.Get(context.Background(), "job_1"); !domain.IsTransport(err) {
		t.Fatalf("expected transport error for unknown status, got %v", err)
	}
}

func TestReplicateGetNotFound(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	client := newTestReplicate(t, transport)
	if _, err := client.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplicateCancel(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.set("POST /v1/predictions/job_1/cancel", http.StatusOK, map[string]any{"id": "job_1", "status": "canceled"})
	client := newTestReplicate(t, transport)
	if err := client.Cancel(context.Background(), "job_1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
}
