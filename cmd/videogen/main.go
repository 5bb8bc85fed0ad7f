package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/message"

	"videogen/internal/domain"
	"videogen/internal/infra"
	"videogen/internal/jobs"
	"videogen/internal/providers/video"
	"videogen/internal/storage"
)

const (
	exitOK = iota
	exitFailed
	exitDenied
	exitUsage
)

type options struct {
	prompt       string
	model        string
	outDir       string
	save         bool
	lang         string
	cancelRemote bool
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.prompt, "prompt", "", "text prompt describing the video (or pass it as arguments)")
	flag.StringVar(&opts.model, "model", "", "model version override")
	flag.StringVar(&opts.outDir, "out", "", "download the finished video into this directory")
	flag.BoolVar(&opts.save, "save", false, "download the finished video into STORAGE_PATH")
	flag.StringVar(&opts.lang, "lang", "", "label language (en, id); defaults to $LANG")
	flag.BoolVar(&opts.cancelRemote, "cancel-remote", false, "also cancel the remote job on interrupt")
	flag.Parse()

	if opts.prompt == "" {
		opts.prompt = strings.Join(flag.Args(), " ")
	}
	if strings.TrimSpace(opts.prompt) == "" {
		fmt.Fprintln(os.Stderr, "usage: videogen [flags] <prompt>")
		flag.PrintDefaults()
		os.Exit(exitUsage)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	if opts.save && opts.outDir == "" {
		opts.outDir = cfg.StoragePath
	}
	logger := infra.NewLoggerTo(os.Stderr, cfg.AppEnv).With().Str("cmd", "videogen").Logger()

	provider, err := newProvider(cfg, &logger)
	if err != nil {
		exitWithError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := newPrinter(opts.lang, os.Getenv("LC_ALL"), os.Getenv("LANG"))
	os.Exit(run(ctx, cfg, provider, &logger, printer, os.Stdout, opts))
}

func newProvider(cfg *infra.Config, logger *infra.Logger) (video.Provider, error) {
	if cfg.GatewayURL != "" {
		return video.NewGateway(video.GatewayOptions{BaseURL: cfg.GatewayURL, Token: cfg.GatewayToken})
	}
	if cfg.UseSynthetic() {
		logger.Warn().Msg("no VIDEOGEN_API_URL or REPLICATE_API_TOKEN set, using synthetic provider")
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

// run submits one prompt, prints every status change and returns the exit
// code. Cancelling ctx stops observing the job.
func run(ctx context.Context, cfg *infra.Config, provider video.Provider, logger *infra.Logger, p *message.Printer, out io.Writer, opts options) int {
	tracker := jobs.NewTracker(provider, jobs.WithLogger(logger), jobs.WithPolicy(jobs.Policy{
		Interval:   cfg.PollInterval,
		MaxErrors:  cfg.PollMaxErrors,
		MaxBackoff: cfg.PollMaxBackoff,
		MaxElapsed: cfg.PollMaxElapsed,
	}))
	defer tracker.Close()
	session := jobs.NewSession(jobs.NewSubmitter(provider, logger), tracker)

	final := make(chan domain.Job, 1)
	cb := jobs.Callbacks{
		OnUpdate: func(job domain.Job) {
			fmt.Fprintln(out, statusLine(p, job))
		},
		OnTerminal: func(job domain.Job) {
			final <- job
		},
		OnPollError: func(err error) {
			var pe *domain.PollError
			if errors.As(err, &pe) {
				fmt.Fprintln(out, p.Sprintf(msgRetrying, pe.Attempt))
			}
		},
	}

	jobID, err := session.Generate(ctx, domain.PromptRequest{Prompt: opts.prompt, Model: opts.model}, cb)
	if err != nil {
		var authErr *domain.AuthorizationError
		switch {
		case errors.As(err, &authErr):
			reason := authErr.Message
			if reason == "" {
				reason = authErr.Error()
			}
			fmt.Fprintln(out, p.Sprintf(msgUpgrade, reason))
			return exitDenied
		case ctx.Err() != nil:
			return exitFailed
		default:
			fmt.Fprintln(out, p.Sprintf(msgFailed, err.Error()))
			return exitFailed
		}
	}

	select {
	case job := <-final:
		if job.Status != domain.JobStatusSucceeded {
			return exitFailed
		}
		if opts.outDir != "" {
			if err := saveResult(ctx, opts.outDir, job, p, out); err != nil {
				logger.Error().Err(err).Str("job_id", job.ID).Msg("download failed")
				fmt.Fprintln(out, p.Sprintf(msgFailed, err.Error()))
				return exitFailed
			}
		}
		return exitOK
	case <-ctx.Done():
		session.Stop()
		fmt.Fprintln(out, p.Sprintf(msgInterrupted, jobID))
		if opts.cancelRemote {
			cancelRemote(provider, jobID, logger)
		}
		return exitFailed
	}
}

func saveResult(ctx context.Context, dir string, job domain.Job, p *message.Printer, out io.Writer) error {
	store, err := storage.NewFileStore(dir, nil)
	if err != nil {
		return err
	}
	art, err := store.SaveResult(ctx, job)
	if err != nil {
		return err
	}
	path, err := store.Path(art.StorageKey)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, p.Sprintf(msgSaved, path, art.Bytes))
	return nil
}

func cancelRemote(provider video.Provider, jobID string, logger *infra.Logger) {
	canceler, ok := provider.(video.Canceler)
	if !ok || jobID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := canceler.Cancel(ctx, jobID); err != nil {
		logger.Warn().Err(err).Str("job_id", jobID).Msg("remote cancel failed")
		return
	}
	logger.Info().Str("job_id", jobID).Msg("remote job canceled")
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(exitFailed)
}
