package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"videogen/internal/adapter/repo"
	"videogen/internal/http/handlers"
	httpapi "videogen/internal/http/httpapi"
	"videogen/internal/infra"
	"videogen/internal/jobs"
	"videogen/internal/providers/video"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadGatewayConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := newProvider(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: provider setup failed")
	}

	app := &handlers.App{
		Config:    cfg,
		Logger:    &logger,
		Provider:  provider,
		Submitter: jobs.NewSubmitter(provider, &logger),
	}

	// Job history is kept only when a database is configured.
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: db connection failed")
		}
		defer pool.Close()

		jobRepo := repo.NewJobRepository(infra.NewSQLRunner(pool, logger))
		if err := jobRepo.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("api: ensure schema failed")
		}
		tracker := jobs.NewTracker(provider,
			jobs.WithPolicy(pollPolicy(cfg)),
			jobs.WithLogger(&logger),
			jobs.WithFinishedLimit(cfg.FinishedJobsLimit),
		)
		recorder := jobs.NewRecorder(ctx, jobRepo, tracker, &logger)
		defer recorder.Close()
		app.Recorder = recorder
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr()).Bool("synthetic", cfg.UseSynthetic()).Msg("api: listening")
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("api: server failed")
	}
	logger.Info().Msg("api: server stopped")
}

func newProvider(cfg *infra.Config, logger *infra.Logger) (video.Provider, error) {
	if cfg.UseSynthetic() {
		logger.Warn().Msg("api: REPLICATE_API_TOKEN not set, using synthetic provider")
		return video.NewSynthetic(video.SyntheticOptions{Logger: logger}), nil
	}
	return video.NewReplicate(video.ReplicateOptions{
		APIToken:       cfg.ReplicateAPIToken,
		BaseURL:        cfg.ReplicateBaseURL,
		ModelVersion:   cfg.ReplicateModelVersion,
		Logger:         logger,
		RequestTimeout: cfg.ProviderTimeout,
	})
}

func pollPolicy(cfg *infra.Config) jobs.Policy {
	return jobs.Policy{
		Interval:   cfg.PollInterval,
		MaxErrors:  cfg.PollMaxErrors,
		MaxBackoff: cfg.PollMaxBackoff,
		MaxElapsed: cfg.PollMaxElapsed,
	}
}
