package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"videogen/internal/domain"
	"videogen/internal/infra"
	"videogen/internal/middleware"
	"videogen/internal/providers/video"
)

// JobSubmitter is the submission contract the handlers depend on.
type JobSubmitter interface {
	Submit(ctx context.Context, req domain.PromptRequest) (string, error)
}

// JobRecorder keeps server-side job history. It is optional.
type JobRecorder interface {
	Record(ctx context.Context, userID, jobID string, req domain.PromptRequest) error
	Owner(ctx context.Context, jobID string) (string, error)
}

// App carries the dependencies of the gateway handlers.
type App struct {
	Config    *infra.Config
	Logger    *infra.Logger
	Provider  video.Provider
	Submitter JobSubmitter
	Recorder  JobRecorder
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, map[string]errorBody{"error": {Code: errCode, Message: msg}})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) log(r *http.Request) *infra.Logger {
	if l := infra.LoggerFromContext(r.Context()); l != nil {
		return l
	}
	if a.Logger != nil {
		return a.Logger
	}
	return infra.DiscardLogger()
}
