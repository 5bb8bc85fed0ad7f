package video

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"videogen/internal/domain"
	"videogen/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("replicate: api token is required")

// ReplicateOptions configures the Replicate predictions client.
type ReplicateOptions struct {
	APIToken       string
	BaseURL        string
	ModelVersion   string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Replicate talks to the Replicate predictions API.
type Replicate struct {
	apiToken     string
	baseURL      string
	modelVersion string
	httpClient   *http.Client
	logger       *infra.Logger
}

type predictionRequest struct {
	Version string          `json:"version,omitempty"`
	Input   predictionInput `json:"input"`
}

type predictionInput struct {
	Prompt string `json:"prompt"`
}

// NewReplicate constructs a client with sane defaults and injected dependencies.
func NewReplicate(opts ReplicateOptions) (*Replicate, error) {
	token := strings.TrimSpace(opts.APIToken)
	if token == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.replicate.com/v1"
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Replicate{
		apiToken:     token,
		baseURL:      baseURL,
		modelVersion: strings.TrimSpace(opts.ModelVersion),
		httpClient:   httpClient,
		logger:       logger,
	}, nil
}

// Create starts a prediction and returns its id. It never retries.
func (c *Replicate) Create(ctx context.Context, req domain.PromptRequest) (string, error) {
	version := strings.TrimSpace(req.Model)
	if version == "" {
		version = c.modelVersion
	}
	payload := predictionRequest{
		Version: version,
		Input:   predictionInput{Prompt: strings.TrimSpace(req.Prompt)},
	}
	var created StatusPayload
	if err := doJSON(ctx, c.httpClient, "replicate: create prediction", http.MethodPost, c.baseURL+"/predictions", c.header(), payload, &created); err != nil {
		return "", err
	}
	if strings.TrimSpace(created.ID) == "" {
		return "", &domain.TransportError{Op: "replicate: create prediction", Err: errors.New("response missing prediction id")}
	}
	c.logger.Debug().
		Str("job_id", created.ID).
		Str("status", created.Status).
		Msg("replicate: prediction created")
	return created.ID, nil
}

// Get fetches the current status of a prediction.
func (c *Replicate) Get(ctx context.Context, jobID string) (domain.Job, error) {
	var payload StatusPayload
	endpoint := c.baseURL + "/predictions/" + url.PathEscape(jobID)
	if err := doJSON(ctx, c.httpClient, "replicate: get prediction", http.MethodGet, endpoint, c.header(), nil, &payload); err != nil {
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

// Cancel asks Replicate to stop a running prediction.
func (c *Replicate) Cancel(ctx context.Context, jobID string) error {
	endpoint := c.baseURL + "/predictions/" + url.PathEscape(jobID) + "/cancel"
	return doJSON(ctx, c.httpClient, "replicate: cancel prediction", http.MethodPost, endpoint, c.header(), nil, nil)
}

func (c *Replicate) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.apiToken)
	return h
}

var (
	_ Provider = (*Replicate)(nil)
	_ Canceler = (*Replicate)(nil)
)
