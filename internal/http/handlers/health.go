package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok", "provider": "replicate", "history": a.Recorder != nil}
	if a.Config != nil && a.Config.UseSynthetic() {
		body["provider"] = "synthetic"
	}
	a.json(w, http.StatusOK, body)
}
