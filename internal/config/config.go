package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration for the companion service.
// Environment variables are parsed from the DEVA_ prefix,
// e.g. DEVA_HTTP_PORT, DEVA_POSTGRES_DSN.
type Config struct {
	// Build target selects the deployment flavor: local (SQLite file) or cloud (Postgres).
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// DBDriver overrides the driver derived from BuildTarget ("sqlite" or "postgres").
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	SQLitePath  string `envconfig:"SQLITE_PATH" default:"deva.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Model provider configuration. The openai provider speaks any
	// OpenAI-compatible endpoint (NVIDIA NIM, Ollama, vLLM) via ModelBaseURL.
	ModelProvider string  `envconfig:"MODEL_PROVIDER" default:"openai"`
	ModelID       string  `envconfig:"MODEL_ID" default:"mistralai/mistral-7b-instruct-v0.3"`
	ModelBaseURL  string  `envconfig:"MODEL_BASE_URL" default:"https://integrate.api.nvidia.com/v1"`
	ModelAPIKey   string  `envconfig:"MODEL_API_KEY" default:""`
	Temperature   float64 `envconfig:"MODEL_TEMPERATURE" default:"0.2"`
	TopP          float64 `envconfig:"MODEL_TOP_P" default:"0.7"`
	MaxTokens     int64   `envconfig:"MODEL_MAX_TOKENS" default:"1024"`

	// ModelTimeoutSeconds bounds every model call, including the secondary
	// title/tag suggestion call.
	ModelTimeoutSeconds int `envconfig:"MODEL_TIMEOUT_SECONDS" default:"60"`

	// Prompt window sizes.
	MemoryRecallLimit int `envconfig:"MEMORY_RECALL_LIMIT" default:"10"`
	HistoryLimit      int `envconfig:"HISTORY_LIMIT" default:"20"`
	MaxToolRounds     int `envconfig:"MAX_TOOL_ROUNDS" default:"4"`

	// User profile rendered into the persona preamble. Single-user deployment.
	ProfileName   string `envconfig:"PROFILE_NAME" default:""`
	ProfileDOB    string `envconfig:"PROFILE_DOB" default:""`
	ProfileGender string `envconfig:"PROFILE_GENDER" default:""`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	allowedDB := map[string]bool{"sqlite": true, "postgres": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("DEVA_POSTGRES_DSN is required when DB_DRIVER=postgres")
	}

	allowedModel := map[string]bool{"openai": true, "anthropic": true}
	if !allowedModel[c.ModelProvider] {
		return fmt.Errorf("unsupported MODEL_PROVIDER: %s", c.ModelProvider)
	}
	return nil
}

// New creates a Config by parsing DEVA_-prefixed environment variables.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("DEVA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
