package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file written by `stockval init`.
const FileName = "stockval.yaml"

// Config represents the top-level stockval.yaml configuration.
type Config struct {
	Business  BusinessConfig  `yaml:"business"`
	Store     StoreConfig     `yaml:"store"`
	Valuation ValuationConfig `yaml:"valuation"`
	Server    ServerConfig    `yaml:"server"`
	WizardAPI WizardAPIConfig `yaml:"wizard_api"`
	Log       LogConfig       `yaml:"log"`
}

// BusinessConfig identifies who the valuations are for.
type BusinessConfig struct {
	Name    string `yaml:"name"`
	StoreID int    `yaml:"store_id,omitempty"`
}

// StoreConfig selects where the master price table is persisted.
type StoreConfig struct {
	Backend    string `yaml:"backend"` // memory, file, sqlite, mongo
	Path       string `yaml:"path,omitempty"`
	URI        string `yaml:"uri,omitempty"`
	Database   string `yaml:"database,omitempty"`
	Collection string `yaml:"collection,omitempty"`
}

// ValuationConfig controls parsing and summaries.
type ValuationConfig struct {
	Currency   string `yaml:"currency"`
	StrictCSV  bool   `yaml:"strict_csv"`
	SampleSize int    `yaml:"sample_size"`
}

// ServerConfig holds HTTP server options.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// WizardAPIConfig points at the balance-sheet API that owns account balances.
// An empty BaseURL disables pushing applied values.
type WizardAPIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	DraftID        int    `yaml:"draft_id,omitempty"`
}

// LogConfig controls the zap logger and the run log.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	RunLog      string `yaml:"run_log"`
}

// Load reads a stockval.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name: businessName,
		},
		Store: StoreConfig{
			Backend:    "file",
			Path:       "data",
			Database:   "stockval",
			Collection: "kv",
		},
		Valuation: ValuationConfig{
			Currency:   "USD",
			SampleSize: 5,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		WizardAPI: WizardAPIConfig{
			TimeoutSeconds: 15,
		},
		Log: LogConfig{
			Level:  "info",
			RunLog: "logs/run-log.csv",
		},
	}
}

// ApplyEnv loads envFile (or ./.env when empty; a missing file is fine) and
// overrides cfg with any STOCKVAL_* variables that are set.
func ApplyEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	overrides := []struct {
		key string
		dst *string
	}{
		{"STOCKVAL_STORE_BACKEND", &cfg.Store.Backend},
		{"STOCKVAL_STORE_PATH", &cfg.Store.Path},
		{"STOCKVAL_STORE_URI", &cfg.Store.URI},
		{"STOCKVAL_SERVER_ADDR", &cfg.Server.Addr},
		{"STOCKVAL_WIZARD_URL", &cfg.WizardAPI.BaseURL},
		{"STOCKVAL_LOG_LEVEL", &cfg.Log.Level},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && strings.TrimSpace(v) != "" {
			*o.dst = strings.TrimSpace(v)
		}
	}
	return nil
}

// Validate checks the fields the rest of the program relies on.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Valuation.Currency == "" {
		return errors.New("valuation.currency must be provided")
	}
	if c.Valuation.SampleSize < 0 {
		return errors.New("valuation.sample_size must not be negative")
	}
	if c.WizardAPI.TimeoutSeconds < 0 {
		return errors.New("wizard_api.timeout_seconds must not be negative")
	}
	return nil
}
