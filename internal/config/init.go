package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// starter is the YAML-shaped template written by `sheetagent config init`.
type starter struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKeys  struct {
		OpenAI    string `yaml:"openai"`
		Anthropic string `yaml:"anthropic"`
	} `yaml:"api_keys"`
	Run struct {
		OutputDir       string `yaml:"output_dir"`
		PollIntervalSec int    `yaml:"poll_interval_sec"`
		TimeoutSec      int    `yaml:"timeout_sec"`
	} `yaml:"run"`
	History struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"history"`
}

// WriteStarter writes a commented starter config file. It refuses to
// overwrite an existing config.
func WriteStarter() (string, error) {
	dir := Dir()
	path := filepath.Join(dir, "config.yaml")

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config already exists at %s — edit it directly", path)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create %s: %w", dir, err)
	}

	var s starter
	s.Provider = "openai"
	s.Run.OutputDir = "."
	s.Run.PollIntervalSec = 2
	s.Run.TimeoutSec = 600
	s.History.Enabled = true
	s.History.Path = filepath.Join(dir, "history.jsonl")

	data, err := yaml.Marshal(&s)
	if err != nil {
		return "", err
	}

	header := []byte("# sheetagent configuration.\n# API keys can also come from OPENAI_API_KEY / ANTHROPIC_API_KEY or --api-key.\n")
	if err := os.WriteFile(path, append(header, data...), 0600); err != nil {
		return "", fmt.Errorf("could not write %s: %w", path, err)
	}
	return path, nil
}
