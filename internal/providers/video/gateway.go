package video

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"videogen/internal/domain"
)

// GatewayOptions configures the client for the videogen HTTP gateway.
type GatewayOptions struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// Gateway is a Provider backed by the videogen API server rather than the
// remote inference service directly.
type Gateway struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewGateway constructs a gateway client.
func NewGateway(opts GatewayOptions) (*Gateway, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("gateway: base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, err
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Gateway{baseURL: baseURL, token: strings.TrimSpace(opts.Token), httpClient: httpClient}, nil
}

// Create submits the prompt to POST /api/video.
func (g *Gateway) Create(ctx context.Context, req domain.PromptRequest) (string, error) {
	var created struct {
		ID string `json:"id"`
	}
	if err := doJSON(ctx, g.httpClient, "gateway: submit video", http.MethodPost, g.baseURL+"/api/video", g.header(), req, &created); err != nil {
		return "", err
	}
	if strings.TrimSpace(created.ID) == "" {
		return "", &domain.TransportError{Op: "gateway: submit video", Err: errors.New("response missing job id")}
	}
	return created.ID, nil
}

// Get reads GET /api/video/{id}.
func (g *Gateway) Get(ctx context.Context, jobID string) (domain.Job, error) {
	var payload StatusPayload
	endpoint := g.baseURL + "/api/video/" + url.PathEscape(jobID)
	if err := doJSON(ctx, g.httpClient, "gateway: video status", http.MethodGet, endpoint, g.header(), nil, &payload); err != nil {
		return domain.Job{}, err
	}
	if payload.ID == "" {
		payload.ID = jobID
	}
	job, err := payload.ToJob()
	if err != nil {
		return domain.Job{}, err
	}
	job.UpdatedAt = time.Now()
	return job, nil
}

// Cancel calls POST /api/video/{id}/cancel.
func (g *Gateway) Cancel(ctx context.Context, jobID string) error {
	endpoint := g.baseURL + "/api/video/" + url.PathEscape(jobID) + "/cancel"
	return doJSON(ctx, g.httpClient, "gateway: cancel video", http.MethodPost, endpoint, g.header(), nil, nil)
}

func (g *Gateway) header() http.Header {
	h := http.Header{}
	if g.token != "" {
		h.Set("Authorization", "Bearer "+g.token)
	}
	return h
}

var (
	_ Provider = (*Gateway)(nil)
	_ Canceler = (*Gateway)(nil)
)
