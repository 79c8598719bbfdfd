package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the single source of application configuration. Every component
// receives the slice of it that it needs at construction time; nothing reads
// the process environment after Load returns.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Maps          MapsConfig
	AI            AIConfig
	Mining        MiningConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds a postgres connection string from the discrete fields, unless
// DATABASE_URL provided one verbatim.
func (d DatabaseConfig) DSN() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// MapsConfig covers both external Google Maps surfaces: text search for
// discovery and geocoding for address resolution.
type MapsConfig struct {
	APIKey          string
	SearchEndpoint  string
	GeocodeEndpoint string
}

type AIConfig struct {
	APIKey         string
	Model          string
	RequestTimeout time.Duration
	MaxAttempts    int
	RetryBackoff   time.Duration
}

// MiningConfig bounds the pipeline: provider page size, pacing intervals that
// keep single-key rate limits happy, and the review-text budgets fed to the
// extractor.
type MiningConfig struct {
	PageSize       int
	PagePacing     time.Duration
	PlacePacing    time.Duration
	MaxReviewChars int
	MinReviewChars int
}

type ObservabilityConfig struct {
	MetricsEnabled bool
}

// Load reads configuration from the environment. A .env file is honoured when
// present but never required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8000"),
			ReadTimeout:     getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "studyspots"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Maps: MapsConfig{
			APIKey:          os.Getenv("GMAPS_KEY"),
			SearchEndpoint:  getEnv("GMAPS_SEARCH_ENDPOINT", "https://places.googleapis.com/v1/places:searchText"),
			GeocodeEndpoint: getEnv("GMAPS_GEOCODE_ENDPOINT", "https://maps.googleapis.com/maps/api/geocode/json"),
		},
		AI: AIConfig{
			APIKey:         os.Getenv("GEMINI_API_KEY"),
			Model:          getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			RequestTimeout: getDuration("AI_REQUEST_TIMEOUT", 15*time.Second),
			MaxAttempts:    getInt("AI_MAX_ATTEMPTS", 3),
			RetryBackoff:   getDuration("AI_RETRY_BACKOFF", 5*time.Second),
		},
		Mining: MiningConfig{
			PageSize:       getInt("MINING_PAGE_SIZE", 20),
			PagePacing:     getDuration("MINING_PAGE_PACING", 2*time.Second),
			PlacePacing:    getDuration("MINING_PLACE_PACING", time.Second),
			MaxReviewChars: getInt("MINING_MAX_REVIEW_CHARS", 30000),
			MinReviewChars: getInt("MINING_MIN_REVIEW_CHARS", 50),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getBool("METRICS_ENABLED", true),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
