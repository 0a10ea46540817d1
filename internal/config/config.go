// Package config assembles runtime settings from defaults, an optional YAML
// file, a .env file and the process environment, in that order of
// precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the binaries understand.
type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// DatabaseURL selects the Postgres expense store. Empty means in-memory.
	DatabaseURL string `yaml:"database_url"`

	GCPProject      string `yaml:"gcp_project"`
	BigQueryDataset string `yaml:"bigquery_dataset"`
	GCSBucket       string `yaml:"gcs_bucket"`
	CredentialsFile string `yaml:"credentials_file"`

	Gemini GeminiConfig `yaml:"gemini"`
	Notion NotionConfig `yaml:"notion"`
	Worker WorkerConfig `yaml:"worker"`
}

// GeminiConfig controls the optional category enricher.
type GeminiConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// NotionConfig points the sync at a Notion database.
type NotionConfig struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
}

// WorkerConfig sizes the in-memory job queue.
type WorkerConfig struct {
	Count       int `yaml:"count"`
	QueueBuffer int `yaml:"queue_buffer"`
	MaxRetries  int `yaml:"max_retries"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:            "8080",
		LogLevel:        "info",
		BigQueryDataset: "finance",
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Worker: WorkerConfig{
			Count:       5,
			QueueBuffer: 100,
			MaxRetries:  3,
		},
	}
}

// Load reads CONFIG_FILE (if set), then .env (if present), then the
// environment, and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}
	return LoadFrom(os.Getenv("CONFIG_FILE"), os.LookupEnv)
}

// LoadFrom builds a Config from an optional YAML file and a lookup function.
func LoadFrom(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s must be an integer: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("PORT", &cfg.Port)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("GCP_PROJECT", &cfg.GCPProject)
	str("BQ_DATASET", &cfg.BigQueryDataset)
	str("GCS_BUCKET", &cfg.GCSBucket)
	str("GOOGLE_APPLICATION_CREDENTIALS_FILE", &cfg.CredentialsFile)
	str("GEMINI_API_KEY", &cfg.Gemini.APIKey)
	str("GEMINI_MODEL", &cfg.Gemini.Model)
	str("NOTION_TOKEN", &cfg.Notion.Token)
	str("NOTION_DB_ID", &cfg.Notion.DatabaseID)

	if v, ok := lookup("ENRICH_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: ENRICH_ENABLED must be a boolean: %w", err)
		}
		cfg.Gemini.Enabled = enabled
	}

	if err := integer("WORKER_COUNT", &cfg.Worker.Count); err != nil {
		return err
	}
	if err := integer("QUEUE_BUFFER", &cfg.Worker.QueueBuffer); err != nil {
		return err
	}
	return integer("MAX_RETRIES", &cfg.Worker.MaxRetries)
}

// Validate rejects settings the binaries cannot run with.
func (c Config) Validate() error {
	if c.Worker.Count <= 0 {
		return fmt.Errorf("config: worker count must be positive, got %d", c.Worker.Count)
	}
	if c.Worker.QueueBuffer <= 0 {
		return fmt.Errorf("config: queue buffer must be positive, got %d", c.Worker.QueueBuffer)
	}
	if c.Worker.MaxRetries < 0 {
		return fmt.Errorf("config: max retries must not be negative, got %d", c.Worker.MaxRetries)
	}
	if c.Gemini.Enabled && c.Gemini.APIKey == "" {
		return errors.New("config: enrichment enabled but GEMINI_API_KEY is empty")
	}
	return nil
}

// ArchiveEnabled reports whether BigQuery archiving is configured.
func (c Config) ArchiveEnabled() bool {
	return c.GCPProject != "" && c.BigQueryDataset != ""
}
