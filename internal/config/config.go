package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const FileName = "config.yaml"

type Config struct {
	Host     HostConfig     `yaml:"host"`
	Log      LogConfig      `yaml:"log"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

type HostConfig struct {
	URL        string `yaml:"url"`
	Timeout    string `yaml:"timeout"`
	Capability string `yaml:"capability"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type DefaultsConfig struct {
	Collapsed        *bool `yaml:"collapsed"`
	DecorateSnippets *bool `yaml:"decorate_snippets"`
}

func (c *HostConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d < 0 {
		return 30 * time.Second
	}
	return d
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	setDefaults(&cfg)
	return &cfg
}

// Load reads path, fills unset fields with defaults and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	setDefaults(&cfg)
	applyEnv(&cfg, os.LookupEnv)
	return &cfg, nil
}

// Save writes cfg as YAML, creating the parent directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func setDefaults(cfg *Config) {
	if cfg.Host.URL == "" {
		cfg.Host.URL = "http://127.0.0.1:7312"
	}
	if cfg.Host.Timeout == "" {
		cfg.Host.Timeout = "30s"
	}
	if cfg.Host.Capability == "" {
		cfg.Host.Capability = "PhotoshopAction.batchPlay"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Defaults.Collapsed == nil {
		v := true
		cfg.Defaults.Collapsed = &v
	}
	if cfg.Defaults.DecorateSnippets == nil {
		v := true
		cfg.Defaults.DecorateSnippets = &v
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("ACTIONLOG_HOST_URL"); ok && v != "" {
		cfg.Host.URL = v
	}
	if v, ok := lookup("ACTIONLOG_LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = v
	}
}
