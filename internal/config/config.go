package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/apiprobe/apiprobe/internal/models"
)

// Config is the harness configuration, loaded from apiprobe.yaml with
// APIPROBE_* environment overrides.
type Config struct {
	BaseURL     string            `mapstructure:"base_url"`
	TimeoutMs   int               `mapstructure:"timeout_ms"`
	Retries     int               `mapstructure:"retries"`
	Concurrency int               `mapstructure:"concurrency"`
	AuthToken   string            `mapstructure:"auth_token"`
	Headers     map[string]string `mapstructure:"headers"`
	Catalog     string            `mapstructure:"catalog"`

	Toggles ToggleConfig  `mapstructure:"toggles"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ToggleConfig holds the feature toggles copied into each session
type ToggleConfig struct {
	AudioCapture      bool `mapstructure:"audio_capture"`
	ValidateResponses bool `mapstructure:"validate_responses"`
	Persistence       bool `mapstructure:"persistence"`
	ResumeOnFailure   bool `mapstructure:"resume_on_failure"`
}

// StoreConfig selects the checkpoint backend
type StoreConfig struct {
	// Backend is one of sqlite, file, memory
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("timeout_ms", 30000)
	v.SetDefault("retries", 0)
	v.SetDefault("concurrency", 0)
	v.SetDefault("catalog", "catalog.yaml")
	v.SetDefault("toggles.validate_responses", true)
	v.SetDefault("toggles.persistence", true)
	v.SetDefault("toggles.resume_on_failure", true)
	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.path", ".apiprobe/apiprobe.db")
	v.SetDefault("logging.level", "info")
}

// Load reads the configuration. An explicit path is required to exist;
// otherwise apiprobe.yaml is searched in the working directory and its
// absence falls back to defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APIPROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("apiprobe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// TestConfig converts the loaded configuration into the value object
// snapshotted into each test session.
func (c *Config) TestConfig() models.TestConfig {
	return models.TestConfig{
		BaseURL:           c.BaseURL,
		TimeoutMs:         c.TimeoutMs,
		Retries:           c.Retries,
		Concurrency:       c.Concurrency,
		AuthToken:         c.AuthToken,
		Headers:           c.Headers,
		AudioCapture:      c.Toggles.AudioCapture,
		ValidateResponses: c.Toggles.ValidateResponses,
		Persistence:       c.Toggles.Persistence,
		ResumeOnFailure:   c.Toggles.ResumeOnFailure,
	}
}
