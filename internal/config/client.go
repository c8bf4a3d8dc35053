package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ClientConfig configures the CLI host. Sources, later wins: defaults, the
// YAML file named by SIGNSPEAK_CONFIG, environment, command-line flags.
type ClientConfig struct {
	BackendURL   string        `yaml:"backend_url"`
	DBPath       string        `yaml:"db_path"`
	Language     string        `yaml:"language"`
	LogFile      string        `yaml:"log_file"`
	LogLevel     string        `yaml:"log_level"`
	OpenAIAPIKey string        `yaml:"openai_api_key"`
	AudioDir     string        `yaml:"audio_dir"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxPolls     int           `yaml:"max_polls"`
}

func DefaultClient() ClientConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dir := filepath.Join(home, ".signspeak")
	return ClientConfig{
		BackendURL:   "http://localhost:5000",
		DBPath:       filepath.Join(dir, "state.db"),
		Language:     "en-US",
		LogLevel:     "info",
		AudioDir:     filepath.Join(dir, "audio"),
		PollInterval: 10 * time.Second,
		MaxPolls:     40,
	}
}

// LoadClient applies the YAML file (if any) and the environment on top of
// the defaults.
func LoadClient() (ClientConfig, error) {
	cfg := DefaultClient()
	if path := os.Getenv("SIGNSPEAK_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.BackendURL = getenv("SIGNSPEAK_BACKEND_URL", cfg.BackendURL)
	cfg.DBPath = getenv("SIGNSPEAK_DB", cfg.DBPath)
	cfg.Language = getenv("SIGNSPEAK_LANGUAGE", cfg.Language)
	cfg.LogFile = getenv("SIGNSPEAK_LOG_FILE", cfg.LogFile)
	cfg.LogLevel = getenv("SIGNSPEAK_LOG_LEVEL", cfg.LogLevel)
	cfg.OpenAIAPIKey = getenv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.AudioDir = getenv("SIGNSPEAK_AUDIO_DIR", cfg.AudioDir)
	cfg.PollInterval = getduration("SIGNSPEAK_POLL_INTERVAL", cfg.PollInterval)
	return cfg, nil
}

func (c *ClientConfig) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
