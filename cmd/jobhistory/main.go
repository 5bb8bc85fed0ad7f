package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"videogen/internal/adapter/repo"
	"videogen/internal/domain"
	"videogen/internal/infra"
)

func main() {
	_ = godotenv.Load()

	var idFlag string
	flag.StringVar(&idFlag, "id", "", "job id to show")
	flag.Parse()

	jobID := strings.TrimSpace(idFlag)
	if jobID == "" {
		exitWithError(errors.New("-id must be provided"))
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLoggerTo(os.Stderr, "cli").With().Str("cmd", "jobhistory").Logger()
	jobs := repo.NewJobRepository(infra.NewSQLRunner(pool, logger))

	rec, err := jobs.GetByID(ctx, jobID)
	if errors.Is(err, domain.ErrNotFound) {
		exitWithError(fmt.Errorf("job %s not found", jobID))
	}
	if err != nil {
		exitWithError(fmt.Errorf("failed to load job: %w", err))
	}

	fmt.Printf("Job %s (user %s)\n", rec.ID, rec.UserID)
	fmt.Printf("status=%s\n", rec.Status)
	fmt.Printf("prompt=%q\n", rec.Prompt)
	if rec.Model != "" {
		fmt.Printf("model=%s\n", rec.Model)
	}
	if rec.Result != "" {
		fmt.Printf("result=%s\n", rec.Result)
	}
	if rec.FailureReason != "" {
		fmt.Printf("failure=%s\n", rec.FailureReason)
	}
	fmt.Printf("created_at=%s\n", rec.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Printf("updated_at=%s\n", rec.UpdatedAt.UTC().Format(time.RFC3339))
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
