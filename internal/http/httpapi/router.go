package httpapi

import (
	"net/http"
	"time"

	"videogen/internal/http/handlers"
	"videogen/internal/infra"
	appmw "videogen/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the gateway routes.
func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	var (
		origins   []string
		secret    string
		rateLimit int
	)
	if app.Config != nil {
		origins = app.Config.CORSAllowedOrigins
		secret = app.Config.JWTSecret
		rateLimit = app.Config.RateLimitPerMin
	}

	logger := app.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}

	r.Use(
		middleware.RealIP,
		appmw.RequestID(*logger),
		middleware.Recoverer,
		appmw.Logger(*logger),
		appmw.CORS(origins),
	)

	// Health
	r.Get("/v1/healthz", app.Health)

	r.Route("/api/video", func(r chi.Router) {
		r.Use(appmw.AuthJWT(secret))
		r.With(appmw.RateLimit(rateLimit, time.Minute)).Post("/", app.VideosGenerate)
		r.Get("/{id}", app.VideoStatus)
		r.Post("/{id}/cancel", app.VideoCancel)
	})

	return r
}
