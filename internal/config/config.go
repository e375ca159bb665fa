package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/credtech/credintel/internal/ingest"
	"github.com/credtech/credintel/internal/scoring"
	"github.com/credtech/credintel/internal/train"
)

// Config is the complete application configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Providers ProvidersConfig `yaml:"providers"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Training  train.Config    `yaml:"training"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Database  DatabaseConfig  `yaml:"database"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the listen address.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// ProvidersConfig configures the upstream data providers.
type ProvidersConfig struct {
	AlphaVantage ProviderConfig `yaml:"alphavantage"`
	Fred         ProviderConfig `yaml:"fred"`
}

// ProviderConfig configures a single upstream provider.
type ProviderConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	TimeoutMS int           `yaml:"timeout_ms"`
	Timeout   time.Duration `yaml:"-"`
}

// IngestConfig configures the feature ingestion pipeline.
type IngestConfig struct {
	Workers     int    `yaml:"workers"`
	PriceDays   int    `yaml:"price_days"`
	MacroSeries string `yaml:"macro_series"`
}

// ScoringConfig configures the online scoring engine.
type ScoringConfig struct {
	MaxObservations int `yaml:"max_observations"`
}

// ArtifactsConfig locates trained model artifacts on disk.
type ArtifactsConfig struct {
	Dir string `yaml:"dir"`
}

// DatabaseConfig configures the optional Postgres assessment store.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// Load reads the YAML config at path, applies environment overrides for
// secrets, and fills defaults. A missing file yields the defaults alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides lets secrets come from the environment instead of the
// config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.Providers.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		cfg.Providers.Fred.APIKey = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "127.0.0.1"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Providers.AlphaVantage.TimeoutMS == 0 {
		cfg.Providers.AlphaVantage.TimeoutMS = 10000
	}
	if cfg.Providers.Fred.TimeoutMS == 0 {
		cfg.Providers.Fred.TimeoutMS = 10000
	}
	cfg.Providers.AlphaVantage.Timeout = time.Duration(cfg.Providers.AlphaVantage.TimeoutMS) * time.Millisecond
	cfg.Providers.Fred.Timeout = time.Duration(cfg.Providers.Fred.TimeoutMS) * time.Millisecond

	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = ingest.DefaultWorkers
	}
	if cfg.Ingest.PriceDays == 0 {
		cfg.Ingest.PriceDays = 30
	}
	if cfg.Ingest.MacroSeries == "" {
		cfg.Ingest.MacroSeries = "FEDFUNDS"
	}
	if cfg.Scoring.MaxObservations == 0 {
		cfg.Scoring.MaxObservations = scoring.DefaultMaxObservations
	}
	if cfg.Training.TestFraction == 0 {
		cfg.Training = train.DefaultConfig()
	}
	if cfg.Artifacts.Dir == "" {
		cfg.Artifacts.Dir = "artifacts"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
}

// Validate checks the configuration for values the application cannot run
// with.
func (c *Config) Validate() error {
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port %d out of range", c.HTTP.Port)
	}
	if c.Ingest.Workers < 1 {
		return fmt.Errorf("ingest workers must be positive, got %d", c.Ingest.Workers)
	}
	if c.Ingest.PriceDays < 1 {
		return fmt.Errorf("ingest price_days must be positive, got %d", c.Ingest.PriceDays)
	}
	if c.Scoring.MaxObservations < 1 {
		return fmt.Errorf("scoring max_observations must be positive, got %d", c.Scoring.MaxObservations)
	}
	return nil
}
