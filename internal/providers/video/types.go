// Package video holds the clients for remote asynchronous video generation
// services. Every client normalizes remote statuses into domain.Job at this
// boundary so the rest of the module never sees provider vocabulary.
package video

import (
	"context"
	"fmt"

	"videogen/internal/domain"
)

// Provider creates remote generation jobs and reports their status.
type Provider interface {
	Create(ctx context.Context, req domain.PromptRequest) (string, error)
	Get(ctx context.Context, jobID string) (domain.Job, error)
}

// Canceler is implemented by providers that can cancel a remote job.
type Canceler interface {
	Cancel(ctx context.Context, jobID string) error
}

// StatusPayload is the wire shape of a job status shared by the remote
// provider and the gateway.
type StatusPayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output any    `json:"output"`
	Error  any    `json:"error"`
}

// ToJob normalizes a status payload into the domain model.
func (p StatusPayload) ToJob() (domain.Job, error) {
	status, ok := domain.ParseJobStatus(p.Status)
	if !ok {
		return domain.Job{}, &domain.TransportError{Op: "decode status", Err: &unknownStatusError{raw: p.Status}}
	}
	job := domain.Job{
		ID:            p.ID,
		Status:        status,
		Result:        firstOutputURL(p.Output),
		FailureReason: errorText(p.Error),
	}
	return job.Normalize(), nil
}

// PayloadFromJob renders a job in the wire shape used by the gateway.
func PayloadFromJob(job domain.Job) StatusPayload {
	job = job.Normalize()
	payload := StatusPayload{ID: job.ID, Status: string(job.Status)}
	if job.Result != "" {
		payload.Output = []string{job.Result}
	}
	if job.FailureReason != "" {
		payload.Error = job.FailureReason
	}
	return payload
}

type unknownStatusError struct {
	raw string
}

func (e *unknownStatusError) Error() string {
	return fmt.Sprintf("unrecognized job status %q", e.raw)
}

// firstOutputURL accepts the output shapes seen in practice: a single URL, a
// list of URLs, or a list with nulls while frames are still uploading.
func firstOutputURL(output any) string {
	switch v := output.(type) {
	case string:
		return v
	case []string:
		for _, s := range v {
			if s != "" {
				return s
			}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				return s
			}
		}
	case map[string]any:
		for _, key := range []string{"video", "url", "output"} {
			if s, ok := v[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func errorText(v any) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return e
	case map[string]any:
		if msg, ok := e["message"].(string); ok {
			return msg
		}
		if detail, ok := e["detail"].(string); ok {
			return detail
		}
	}
	return ""
}
