package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"videogen/internal/domain"
	"videogen/internal/providers/video"

	"github.com/go-chi/chi/v5"
)

const (
	maxPromptBody  = 64 << 10
	abandonTimeout = 10 * time.Second
)

type videoGenerateRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

type videoGenerateResponse struct {
	ID string `json:"id"`
}

// VideosGenerate handles POST /api/video.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req videoGenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPromptBody)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	prompt := domain.PromptRequest{Prompt: strings.TrimSpace(req.Prompt), Model: req.Model}

	id, err := a.Submitter.Submit(r.Context(), prompt)
	if err != nil {
		a.submitError(w, r, err)
		return
	}

	if a.Recorder != nil {
		if err := a.Recorder.Record(r.Context(), userID, id, prompt); err != nil {
			a.log(r).Error().Err(err).Str("job_id", id).Msg("handlers: record job failed")
			a.abandonJob(r, id)
			a.error(w, http.StatusInternalServerError, "internal", "failed to record job")
			return
		}
	}
	a.json(w, http.StatusOK, videoGenerateResponse{ID: id})
}

// abandonJob cancels a remote job the caller will never be allowed to see.
func (a *App) abandonJob(r *http.Request, id string) {
	canceler, ok := a.Provider.(video.Canceler)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), abandonTimeout)
	defer cancel()
	if err := canceler.Cancel(ctx, id); err != nil {
		a.log(r).Warn().Err(err).Str("job_id", id).Msg("handlers: cancel unrecorded job failed")
	}
}

func (a *App) submitError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		authErr  *domain.AuthorizationError
		validErr *domain.ValidationError
	)
	switch {
	case errors.As(err, &authErr):
		msg := authErr.Message
		if msg == "" {
			msg = "upgrade required to generate videos"
		}
		a.error(w, http.StatusForbidden, "entitlement_denied", msg)
	case errors.As(err, &validErr):
		msg := validErr.Message
		if msg == "" {
			msg = "invalid prompt"
		}
		a.error(w, http.StatusBadRequest, "bad_request", msg)
	case r.Context().Err() != nil:
		// Client went away; nobody reads the response.
		a.log(r).Debug().Err(err).Msg("handlers: submit aborted")
	default:
		a.log(r).Error().Err(err).Msg("handlers: submit failed")
		a.error(w, http.StatusBadGateway, "provider_error", "video provider unavailable")
	}
}

// VideoStatus handles GET /api/video/{id}.
func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := a.authorizedJob(w, r)
	if !ok {
		return
	}
	job, err := a.Provider.Get(r.Context(), id)
	if err != nil {
		a.providerError(w, r, id, err)
		return
	}
	job.ID = id
	a.json(w, http.StatusOK, video.PayloadFromJob(job))
}

// VideoCancel handles POST /api/video/{id}/cancel.
func (a *App) VideoCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := a.authorizedJob(w, r)
	if !ok {
		return
	}
	canceler, ok := a.Provider.(video.Canceler)
	if !ok {
		a.error(w, http.StatusNotImplemented, "not_supported", "provider cannot cancel jobs")
		return
	}
	if err := canceler.Cancel(r.Context(), id); err != nil {
		a.providerError(w, r, id, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]string{"id": id})
}

// authorizedJob resolves the {id} path parameter and, when job history is
// kept, hides jobs submitted by other users.
func (a *App) authorizedJob(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return "", false
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return "", false
	}
	if a.Recorder == nil {
		return id, true
	}
	owner, err := a.Recorder.Owner(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return "", false
	case err != nil:
		a.log(r).Error().Err(err).Str("job_id", id).Msg("handlers: load job owner failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return "", false
	case owner != userID:
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return "", false
	}
	return id, true
}

func (a *App) providerError(w http.ResponseWriter, r *http.Request, id string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "job not found")
	case domain.IsAuthorization(err):
		a.log(r).Error().Err(err).Str("job_id", id).Msg("handlers: provider rejected gateway credentials")
		a.error(w, http.StatusBadGateway, "provider_error", "video provider unavailable")
	default:
		a.log(r).Warn().Err(err).Str("job_id", id).Msg("handlers: provider request failed")
		a.error(w, http.StatusBadGateway, "provider_error", "video provider unavailable")
	}
}
