// Package config loads the API server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the API server configuration.
type Config struct {
	Port        string `validate:"required,numeric"`
	Environment string `validate:"required"`

	MapsAPIKey  string `validate:"required"`
	GCPProject  string `validate:"required"`
	GCPLocation string `validate:"required"`
	GeminiModel string `validate:"required"`

	ReferenceName      string  `validate:"required"`
	ReferenceLat       float64 `validate:"gte=-90,lte=90"`
	ReferenceLng       float64 `validate:"gte=-180,lte=180"`
	MaxStartDistanceKm float64 `validate:"gt=0"`
	PlaceQuerySuffix   string

	PhotoBaseURL  string `validate:"required"`
	PhotoMaxWidth int    `validate:"gt=0,lte=1600"`

	UpstreamTimeout           time.Duration `validate:"gt=0"`
	GenerationTimeout         time.Duration `validate:"gt=0"`
	ResolveConcurrency        int           `validate:"gt=0,lte=32"`
	GenerateRateLimitPerMin   int           `validate:"gt=0"`
	CircuitBreakerMaxFailures uint32        `validate:"gt=0"`

	CORSAllowedOrigins []string `validate:"min=1"`
	RequireTLS         bool

	OTelEnabled      bool
	OTLPEndpoint     string
	TraceSampleRatio float64 `validate:"gt=0,lte=1"`
}

// Load reads a .env file when present, then builds the configuration from
// environment variables. Variables already set in the environment win.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds and validates the configuration from environment variables.
func FromEnv() (Config, error) {
	p := &parser{}

	cfg := Config{
		Port:        getEnvOrDefault("APP_PORT", "8080"),
		Environment: getEnvOrDefault("APP_ENV", "development"),

		MapsAPIKey:  os.Getenv("MAPS_API_KEY"),
		GCPProject:  getEnvOrDefault("GCP_PROJECT", "geosycle"),
		GCPLocation: getEnvOrDefault("GCP_LOCATION", "asia-northeast1"),
		GeminiModel: getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),

		ReferenceName:      getEnvOrDefault("REFERENCE_NAME", "宇都宮駅"),
		ReferenceLat:       p.float("REFERENCE_LAT", 36.5594),
		ReferenceLng:       p.float("REFERENCE_LNG", 139.8985),
		MaxStartDistanceKm: p.float("MAX_START_DISTANCE_KM", 100),
		PlaceQuerySuffix:   getEnvOrDefault("PLACE_QUERY_SUFFIX", "宇都宮"),

		PhotoBaseURL:  getEnvOrDefault("PHOTO_BASE_URL", "/place-photo"),
		PhotoMaxWidth: p.int("PHOTO_MAX_WIDTH", 400),

		UpstreamTimeout:           p.duration("UPSTREAM_TIMEOUT", 10*time.Second),
		GenerationTimeout:         p.duration("GENERATION_TIMEOUT", 60*time.Second),
		ResolveConcurrency:        p.int("PLANNER_RESOLVE_CONCURRENCY", 4),
		GenerateRateLimitPerMin:   p.int("GENERATE_RATE_LIMIT_PER_MIN", 30),
		CircuitBreakerMaxFailures: uint32(p.int("CIRCUIT_BREAKER_MAX_FAILURES", 5)), //nolint:gosec // bounded by validation

		CORSAllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		RequireTLS:         getEnvOrDefault("REQUIRE_TLS", "false") == "true",

		OTelEnabled:  getEnvOrDefault("OTEL_ENABLED", "false") == "true",
		OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		TraceSampleRatio: p.float("OTEL_TRACE_SAMPLE_RATIO", 1),
	}

	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

type parser struct {
	errs []error
}

func (p *parser) int(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func (p *parser) float(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func (p *parser) duration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
