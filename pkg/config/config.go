// Package config loads server configuration from config.yaml with
// environment variable overrides. Secrets (database password, JWT
// secret, LLM API key) must only come from environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/internmatch/internmatch-engine/pkg/database"
)

// Config holds all configuration for internmatch-engine.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// MigrationsPath is the directory holding SQL migration files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Scoring  ScoringConfig  `yaml:"scoring"`
}

// AuthConfig holds token issuance configuration.
type AuthConfig struct {
	// JWTSecret signs access tokens. The server fails to start without it.
	JWTSecret string `yaml:"-" env:"JWT_SECRET"` // Secret - not in YAML

	// TokenTTLHours is how long issued tokens stay valid.
	TokenTTLHours int `yaml:"token_ttl_hours" env:"TOKEN_TTL_HOURS" env-default:"24"`
}

// TokenTTL returns the token lifetime as a duration.
func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"internmatch"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"internmatch_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
}

// PoolConfig converts to the database package's connection config.
func (c *DatabaseConfig) PoolConfig() *database.Config {
	return &database.Config{
		Host:           c.Host,
		Port:           c.Port,
		User:           c.User,
		Password:       c.Password,
		Database:       c.Database,
		SSLMode:        c.SSLMode,
		MaxConnections: c.MaxConnections,
	}
}

// ScoringConfig holds match-scoring configuration. When LLMEndpoint is
// empty the server falls back to the deterministic overlap scorer for
// both fast and full mode.
type ScoringConfig struct {
	LLMEndpoint    string `yaml:"llm_endpoint" env:"SCORING_LLM_ENDPOINT" env-default:""`
	LLMModel       string `yaml:"llm_model" env:"SCORING_LLM_MODEL" env-default:"gpt-4o-mini"`
	LLMAPIKey      string `yaml:"-" env:"SCORING_LLM_API_KEY"` // Secret - not in YAML
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"SCORING_TIMEOUT_SECONDS" env-default:"30"`
	MaxConcurrent  int    `yaml:"max_concurrent" env:"SCORING_MAX_CONCURRENT" env-default:"8"`
}

// LLMEnabled reports whether an LLM scoring backend is configured.
func (c *ScoringConfig) LLMEnabled() bool {
	return c.LLMEndpoint != ""
}

// Timeout returns the per-request scoring timeout as a duration.
func (c *ScoringConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable
// overrides. The file is optional; without it, configuration comes from
// the environment and defaults alone. The version parameter is injected
// at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	return cfg, nil
}
