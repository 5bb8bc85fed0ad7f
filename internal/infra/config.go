package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv                string
	Port                  string
	DatabaseURL           string
	JWTSecret             string
	ReplicateAPIToken     string
	ReplicateBaseURL      string
	ReplicateModelVersion string
	GatewayURL            string
	GatewayToken          string
	StoragePath           string
	CORSAllowedOrigins    []string
	PollInterval          time.Duration
	PollMaxErrors         int
	PollMaxBackoff        time.Duration
	PollMaxElapsed        time.Duration
	FinishedJobsLimit     int
	ProviderTimeout       time.Duration
	HTTPReadTimeout       time.Duration
	HTTPWriteTimeout      time.Duration
	HTTPIdleTimeout       time.Duration
	RateLimitPerMin       int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		ReplicateAPIToken:     strings.TrimSpace(os.Getenv("REPLICATE_API_TOKEN")),
		ReplicateBaseURL:      getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),
		ReplicateModelVersion: getEnv("REPLICATE_MODEL_VERSION", "9f747673945c62801b13b84701c783929c0ee784e4748ec062204894dda1a351"),
		GatewayURL:            strings.TrimRight(os.Getenv("VIDEOGEN_API_URL"), "/"),
		GatewayToken:          os.Getenv("VIDEOGEN_API_TOKEN"),
		StoragePath:           getEnv("STORAGE_PATH", "./storage"),
		CORSAllowedOrigins:    getEnvList("CORS_ALLOWED_ORIGINS"),
		PollInterval:          time.Millisecond * time.Duration(getEnvInt("POLL_INTERVAL_MS", 2000)),
		PollMaxErrors:         getEnvInt("POLL_MAX_ERRORS", 5),
		PollMaxBackoff:        time.Millisecond * time.Duration(getEnvInt("POLL_MAX_BACKOFF_MS", 30000)),
		PollMaxElapsed:        time.Second * time.Duration(getEnvInt("POLL_MAX_ELAPSED_SECONDS", 1800)),
		FinishedJobsLimit:     getEnvInt("FINISHED_JOBS_LIMIT", 1024),
		ProviderTimeout:       time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 30)),
		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:      time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:       time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:       getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_MS must be positive")
	}
	if cfg.PollMaxErrors < 0 {
		return nil, fmt.Errorf("POLL_MAX_ERRORS must not be negative")
	}

	return cfg, nil
}

// LoadGatewayConfig loads configuration for the HTTP gateway, which additionally
// needs a JWT secret to verify callers.
func LoadGatewayConfig() (*Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

// UseSynthetic reports whether the remote provider is unconfigured and the
// synthetic provider should stand in for it.
func (c *Config) UseSynthetic() bool {
	return c.ReplicateAPIToken == ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
