package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL           string
	JWTSecretKey          string
	ServerPort            int
	LogLevel              slog.Level
	NATSURL               string
	NATSSubjectPrefix     string
	RegenerateConcurrency int
	CORSAllowedOrigins    []string
}

// Load reads the configuration from the environment, loading a .env file first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(envOr("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	concurrency, err := intEnv("REGENERATE_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		return nil, fmt.Errorf("REGENERATE_CONCURRENCY must be positive, got %d", concurrency)
	}

	var origins []string
	for _, o := range strings.Split(envOr("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		DatabaseURL:           dbURL,
		JWTSecretKey:          jwtKey,
		ServerPort:            port,
		LogLevel:              level,
		NATSURL:               os.Getenv("NATS_URL"),
		NATSSubjectPrefix:     envOr("NATS_SUBJECT_PREFIX", "competitions"),
		RegenerateConcurrency: concurrency,
		CORSAllowedOrigins:    origins,
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return n, nil
}
