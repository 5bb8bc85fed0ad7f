package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"videogen/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	var (
		subjectFlag string
		planFlag    string
		ttlFlag     time.Duration
		secretFlag  string
	)
	flag.StringVar(&subjectFlag, "sub", "", "user id to put in the token subject")
	flag.StringVar(&planFlag, "plan", "free", "plan claim (free, pro)")
	flag.DurationVar(&ttlFlag, "ttl", 24*time.Hour, "token lifetime (0 for no expiry)")
	flag.StringVar(&secretFlag, "secret", "", "signing secret (fallbacks to JWT_SECRET)")
	flag.Parse()

	subject := strings.TrimSpace(subjectFlag)
	if subject == "" {
		fmt.Fprintln(os.Stderr, "-sub is required")
		os.Exit(1)
	}
	secret := strings.TrimSpace(secretFlag)
	if secret == "" {
		secret = strings.TrimSpace(os.Getenv("JWT_SECRET"))
	}
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required")
		os.Exit(1)
	}

	token, err := middleware.SignJWT(secret, subject, strings.ToLower(strings.TrimSpace(planFlag)), ttlFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
