// Package config manages application configuration from files and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKeys  struct {
		OpenAI    string `mapstructure:"openai"`
		Anthropic string `mapstructure:"anthropic"`
	} `mapstructure:"api_keys"`
	Run struct {
		OutputDir       string `mapstructure:"output_dir"`
		PollIntervalSec int    `mapstructure:"poll_interval_sec"`
		TimeoutSec      int    `mapstructure:"timeout_sec"`
	} `mapstructure:"run"`
	Watch struct {
		DebounceMs int `mapstructure:"debounce_ms"`
	} `mapstructure:"watch"`
	History struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"history"`
	Output struct {
		Format string `mapstructure:"format"`
		Color  bool   `mapstructure:"color"`
	} `mapstructure:"output"`
}

// Load reads the configuration from ~/.sheetagent/config.yaml and
// environment variables with the SHEETAGENT prefix.
func Load() (*Config, error) {
	dir := Dir()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dir)

	// Defaults
	viper.SetDefault("provider", "openai")
	viper.SetDefault("model", "")
	viper.SetDefault("run.output_dir", ".")
	viper.SetDefault("run.poll_interval_sec", 2)
	viper.SetDefault("run.timeout_sec", 600)
	viper.SetDefault("watch.debounce_ms", 2000)
	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.path", filepath.Join(dir, "history.jsonl"))
	viper.SetDefault("output.color", true)
	viper.SetDefault("output.format", "text")

	// Environment variable overrides
	viper.SetEnvPrefix("SHEETAGENT")
	viper.AutomaticEnv()

	// Read config file (non-fatal if missing)
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// PollInterval returns the run poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Run.PollIntervalSec) * time.Second
}

// Timeout returns the await timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Run.TimeoutSec) * time.Second
}

// KeyFor returns the configured API key for a provider, if any.
func (c *Config) KeyFor(provider string) string {
	switch provider {
	case "openai":
		return c.APIKeys.OpenAI
	case "anthropic":
		return c.APIKeys.Anthropic
	}
	return ""
}

// Dir returns the sheetagent config directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sheetagent"
	}
	return filepath.Join(home, ".sheetagent")
}

// Issue is a single problem found while validating the configuration.
type Issue struct {
	Key      string
	Severity string // "error" or "warning"
	Message  string
}

// Validate checks the effective configuration and returns any issues found.
func Validate() []Issue {
	var issues []Issue

	cfg, err := Load()
	if err != nil {
		return []Issue{{Key: "config", Severity: "error", Message: fmt.Sprintf("config file is invalid: %v", err)}}
	}

	switch cfg.Provider {
	case "openai":
		if os.Getenv("OPENAI_API_KEY") == "" && cfg.APIKeys.OpenAI == "" {
			issues = append(issues, Issue{
				Key:      "api_keys.openai",
				Severity: "error",
				Message:  "OPENAI_API_KEY is not set and no key is configured — agent runs will fail",
			})
		}
	case "anthropic":
		if os.Getenv("ANTHROPIC_API_KEY") == "" && cfg.APIKeys.Anthropic == "" {
			issues = append(issues, Issue{
				Key:      "api_keys.anthropic",
				Severity: "error",
				Message:  "ANTHROPIC_API_KEY is not set and no key is configured — agent runs will fail",
			})
		}
	default:
		issues = append(issues, Issue{
			Key:      "provider",
			Severity: "error",
			Message:  fmt.Sprintf("unknown provider %q — supported: openai, anthropic", cfg.Provider),
		})
	}

	if cfg.Run.PollIntervalSec <= 0 {
		issues = append(issues, Issue{
			Key:      "run.poll_interval_sec",
			Severity: "warning",
			Message:  "poll interval must be positive — the default of 2s will be used",
		})
	}
	if cfg.Run.TimeoutSec <= 0 {
		issues = append(issues, Issue{
			Key:      "run.timeout_sec",
			Severity: "warning",
			Message:  "timeout must be positive — the default of 600s will be used",
		})
	}

	if cfg.Run.OutputDir != "" && cfg.Run.OutputDir != "." {
		if info, err := os.Stat(cfg.Run.OutputDir); err == nil && !info.IsDir() {
			issues = append(issues, Issue{
				Key:      "run.output_dir",
				Severity: "error",
				Message:  fmt.Sprintf("%s exists but is not a directory", cfg.Run.OutputDir),
			})
		}
	}

	return issues
}
