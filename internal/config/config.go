package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/kubev2v/inventory-advisor/internal/analytics"
	"github.com/kubev2v/inventory-advisor/internal/findings"
)

const envPrefix = "INVENTORY_ADVISOR"

var singleConfig *Config = nil

type Config struct {
	Database   *dbConfig
	Service    *svcConfig
	Ingest     *ingestConfig
	Advisory   *advisoryConfig
	Thresholds *findings.Thresholds `envconfig:"THRESHOLD"`
	Rates      *analytics.Rates     `envconfig:"RATE"`
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"sqlite"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"inventory-advisor.db"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string        `envconfig:"INVENTORY_ADVISOR_ADDRESS" default:":3443"`
	MetricsAddress  string        `envconfig:"INVENTORY_ADVISOR_METRICS_ADDRESS" default:":8080"`
	BaseUrl         string        `envconfig:"INVENTORY_ADVISOR_BASE_URL" default:"http://localhost:3443"`
	LogLevel        string        `envconfig:"INVENTORY_ADVISOR_LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"INVENTORY_ADVISOR_LOG_FORMAT" default:"console"`
	MigrationFolder string        `envconfig:"INVENTORY_ADVISOR_MIGRATIONS_FOLDER" default:""`
	RequestTimeout  time.Duration `envconfig:"INVENTORY_ADVISOR_REQUEST_TIMEOUT" default:"60s"`
	MaxUploadMB     int64         `envconfig:"INVENTORY_ADVISOR_MAX_UPLOAD_MB" default:"200"`
	CORSOrigins     []string      `envconfig:"INVENTORY_ADVISOR_CORS_ORIGINS" default:"*"`
	EventsEnabled   bool          `envconfig:"INVENTORY_ADVISOR_EVENTS_ENABLED" default:"true"`
	EventsTopic     string        `envconfig:"INVENTORY_ADVISOR_EVENTS_TOPIC" default:"inventory.advisor.events"`
}

type ingestConfig struct {
	// Dir is scanned at startup and watched for workbook changes when set.
	Dir      string        `envconfig:"INVENTORY_ADVISOR_WORKBOOK_DIR" default:""`
	Watch    bool          `envconfig:"INVENTORY_ADVISOR_WATCH" default:"true"`
	Debounce time.Duration `envconfig:"INVENTORY_ADVISOR_WATCH_DEBOUNCE" default:"2s"`
}

type advisoryConfig struct {
	Enabled       bool          `envconfig:"INVENTORY_ADVISOR_ADVISORY_ENABLED" default:"false"`
	BaseURL       string        `envconfig:"INVENTORY_ADVISOR_ADVISORY_URL" default:"https://api.openai.com/v1/chat/completions"`
	APIKey        string        `envconfig:"INVENTORY_ADVISOR_ADVISORY_API_KEY" default:""`
	Model         string        `envconfig:"INVENTORY_ADVISOR_ADVISORY_MODEL" default:"gpt-4o-mini"`
	FallbackModel string        `envconfig:"INVENTORY_ADVISOR_ADVISORY_FALLBACK_MODEL" default:""`
	Timeout       time.Duration `envconfig:"INVENTORY_ADVISOR_ADVISORY_TIMEOUT" default:"60s"`
	CacheTTL      time.Duration `envconfig:"INVENTORY_ADVISOR_ADVISORY_CACHE_TTL" default:"168h"`
}

// New loads the configuration once per process. Values come from the
// environment, optionally seeded from a .env file in the working directory.
// Thresholds and rates start from their defaults and are overridden by
// INVENTORY_ADVISOR_THRESHOLD_* and INVENTORY_ADVISOR_RATE_* variables.
func New() (*Config, error) {
	if singleConfig == nil {
		if err := loadDotEnv(); err != nil {
			return nil, err
		}
		cfg := NewDefault()
		if err := envconfig.Process(envPrefix, cfg); err != nil {
			return nil, err
		}
		if err := cfg.Thresholds.Validate(); err != nil {
			return nil, err
		}
		singleConfig = cfg
	}
	return singleConfig, nil
}

// NewDefault returns a configuration with every default applied and no
// environment lookups. Tests use it with an in-memory sqlite database.
func NewDefault() *Config {
	th := findings.DefaultThresholds()
	rates := analytics.DefaultRates()
	cfg := &Config{
		Database: &dbConfig{
			Type: "sqlite",
			Name: "file::memory:?cache=shared",
			Port: "5432",
		},
		Service: &svcConfig{
			Address:        ":3443",
			MetricsAddress: ":8080",
			BaseUrl:        "http://localhost:3443",
			LogLevel:       "info",
			LogFormat:      "console",
			RequestTimeout: 60 * time.Second,
			MaxUploadMB:    200,
			CORSOrigins:    []string{"*"},
			EventsEnabled:  true,
			EventsTopic:    "inventory.advisor.events",
		},
		Ingest: &ingestConfig{
			Watch:    true,
			Debounce: 2 * time.Second,
		},
		Advisory: &advisoryConfig{
			BaseURL:  "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
			Timeout:  60 * time.Second,
			CacheTTL: 7 * 24 * time.Hour,
		},
		Thresholds: &th,
		Rates:      &rates,
	}
	return cfg
}

func loadDotEnv() error {
	path := os.Getenv("INVENTORY_ADVISOR_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}
