package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultAPIBaseURL is the Torn API v2 root
const DefaultAPIBaseURL = "https://api.torn.com/v2"

// Config holds application configuration
type Config struct {
	TornAPIKey string `env:"TORN_API_KEY"`
	APIBaseURL string `env:"TORN_API_BASE_URL" envDefault:"https://api.torn.com/v2"`

	StoreDialect     string `env:"STORE_DIALECT" envDefault:"sqlite"`
	StoreSQLitePath  string `env:"STORE_SQLITE_PATH" envDefault:"tmp/torn_tools.sqlite"`
	StorePostgresDSN string `env:"STORE_POSTGRES_DSN"`
	DatabaseURL      string `env:"DATABASE_URL"`

	SpreadsheetID   string `env:"SPREADSHEET_ID"`
	CredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE" envDefault:"credentials.json"`

	BigQueryProject string `env:"BIGQUERY_PROJECT"`
	BigQueryDataset string `env:"BIGQUERY_DATASET"`
	BigQueryTable   string `env:"BIGQUERY_TABLE" envDefault:"war_status"`

	DeployURL     string `env:"DEPLOY_URL"`
	DeployKeyFile string `env:"DEPLOY_KEY_FILE" envDefault:"deploy.pem"`

	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	DisplayTZ string `env:"DISPLAY_TZ" envDefault:"UTC"`

	LeaseRatePerDay int64 `env:"LEASE_RATE_PER_DAY" envDefault:"720000"`
	LeaseTargetDays int   `env:"LEASE_TARGET_DAYS" envDefault:"100"`
}

// SetupEnvironment loads .env file and configures zerolog output and log level.
func SetupEnvironment() {
	// Load .env file if it exists
	err := godotenv.Load()

	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	levelStr := strings.ToLower(os.Getenv("LOGLEVEL"))
	switch levelStr {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case "":
		if os.Getenv("ENV") == "production" {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	var config Config
	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	config.TornAPIKey = strings.TrimSpace(config.TornAPIKey)
	config.APIBaseURL = strings.TrimRight(config.APIBaseURL, "/")
	config.StoreDialect = strings.ToLower(strings.TrimSpace(config.StoreDialect))

	switch config.StoreDialect {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("STORE_DIALECT must be sqlite or postgres, got %q", config.StoreDialect)
	}

	if config.StoreDialect == "postgres" && config.PostgresDSN() == "" {
		return nil, fmt.Errorf("STORE_DIALECT=postgres requires STORE_POSTGRES_DSN or DATABASE_URL")
	}

	if (config.BigQueryProject == "") != (config.BigQueryDataset == "") {
		return nil, fmt.Errorf("BIGQUERY_PROJECT and BIGQUERY_DATASET must be set together")
	}

	if config.LeaseTargetDays <= 0 {
		return nil, fmt.Errorf("LEASE_TARGET_DAYS must be positive, got %d", config.LeaseTargetDays)
	}

	if _, err := time.LoadLocation(config.DisplayTZ); err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TZ %q: %w", config.DisplayTZ, err)
	}

	return &config, nil
}

// PostgresDSN returns the configured postgres connection string, preferring STORE_POSTGRES_DSN
func (c *Config) PostgresDSN() string {
	if dsn := strings.TrimSpace(c.StorePostgresDSN); dsn != "" {
		return dsn
	}
	return strings.TrimSpace(c.DatabaseURL)
}

// DisplayLocation returns the time zone used when printing war start times
func (c *Config) DisplayLocation() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetRequiredEnv gets an environment variable or panics if not found
func GetRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatal().Str("key", key).Msg("Required environment variable not set")
	}
	return value
}
