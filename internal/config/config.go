package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the config file created by `ethos init`.
const FileName = "ethos.yaml"

// EnvPrefix prefixes environment overrides, e.g. ETHOS_LOG_LEVEL.
const EnvPrefix = "ETHOS"

// Config represents the top-level ethos.yaml configuration.
type Config struct {
	User       UserConfig       `yaml:"user" mapstructure:"user"`
	Database   DatabaseConfig   `yaml:"database" mapstructure:"database"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// UserConfig identifies whose ledger the CLI operates on.
type UserConfig struct {
	ID string `yaml:"id" mapstructure:"id"`
}

// DatabaseConfig locates the SQLite file. Relative paths resolve against
// the directory holding ethos.yaml.
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ClassifierConfig controls the external classifier.
type ClassifierConfig struct {
	Model             string `yaml:"model" mapstructure:"model"`
	APIKeyEnv         string `yaml:"api_key_env" mapstructure:"api_key_env"` // name of the env var holding the key
	TimeoutSeconds    int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	LookupConcurrency int    `yaml:"lookup_concurrency" mapstructure:"lookup_concurrency"`
}

// CacheConfig controls the vendor classification cache.
type CacheConfig struct {
	ValidityDays int `yaml:"validity_days" mapstructure:"validity_days"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// Default returns a Config with sensible defaults for a new ledger.
func Default(userID string) *Config {
	return &Config{
		User:     UserConfig{ID: userID},
		Database: DatabaseConfig{Path: "ethos.db"},
		Classifier: ClassifierConfig{
			Model:             "gemini-2.5-flash",
			APIKeyEnv:         "GEMINI_API_KEY",
			TimeoutSeconds:    60,
			LookupConcurrency: 8,
		},
		Cache: CacheConfig{ValidityDays: 90},
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads path, layering it over the defaults, then applies ETHOS_*
// environment overrides (ETHOS_LOG_LEVEL, ETHOS_CLASSIFIER_MODEL, ...).
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	defaults, err := yaml.Marshal(Default("default"))
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("reading defaults: %w", err)
	}

	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.Database.Path) {
		cfg.Database.Path = filepath.Join(filepath.Dir(path), cfg.Database.Path)
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

// Validate checks the fields the CLI cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.User.ID) == "" {
		errs = append(errs, errors.New("user.id is required"))
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("classifier.timeout_seconds must be positive, got %d", c.Classifier.TimeoutSeconds))
	}
	if c.Cache.ValidityDays <= 0 {
		errs = append(errs, fmt.Errorf("cache.validity_days must be positive, got %d", c.Cache.ValidityDays))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// APIKey returns the classifier key from the configured environment variable.
func (c *Config) APIKey() string {
	if c.Classifier.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Classifier.APIKeyEnv)
}

// ClassifierTimeout is the request timeout for one classifier batch.
func (c *Config) ClassifierTimeout() time.Duration {
	return time.Duration(c.Classifier.TimeoutSeconds) * time.Second
}

// CacheValidity is how long vendor cache entries stay usable.
func (c *Config) CacheValidity() time.Duration {
	return time.Duration(c.Cache.ValidityDays) * 24 * time.Hour
}
