// Package config holds the deployment configuration: server address,
// store backend, the record-shape variant and week convention, and the
// suggestion pipeline settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Version     string            `yaml:"version" json:"version"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	Tasks       TasksConfig       `yaml:"tasks" json:"tasks"`
	Suggestions SuggestionsConfig `yaml:"suggestions" json:"suggestions"`
	AdminEmails []string          `yaml:"admin_emails" json:"admin_emails"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr" json:"addr"`
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

type TasksConfig struct {
	// Variant fixes the record shape for this deployment: "tags" or
	// "metrics". Not a per-record choice.
	Variant string `yaml:"variant" json:"variant"`
	// PeriodConvention: "iso" or "month".
	PeriodConvention string `yaml:"period_convention" json:"period_convention"`
	// Store backend: "memory", "file" or "sqlite".
	Store string `yaml:"store" json:"store"`
}

type SuggestionsConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Provider   string `yaml:"provider" json:"provider"` // "anthropic" or "static"
	Model      string `yaml:"model" json:"model"`
	DebounceMS int    `yaml:"debounce_ms" json:"debounce_ms"`
	TimeoutMS  int    `yaml:"timeout_ms" json:"timeout_ms"`
}

func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

func (c *Config) ApplyDefaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.DataDir == "" {
		c.Server.DataDir = "data"
	}
	if c.Tasks.Variant == "" {
		c.Tasks.Variant = "metrics"
	}
	if c.Tasks.PeriodConvention == "" {
		c.Tasks.PeriodConvention = "iso"
	}
	if c.Tasks.Store == "" {
		c.Tasks.Store = "file"
	}
	if c.Suggestions.Provider == "" {
		c.Suggestions.Provider = "static"
	}
	if c.Suggestions.DebounceMS == 0 {
		c.Suggestions.DebounceMS = 1500
	}
	if c.Suggestions.TimeoutMS == 0 {
		c.Suggestions.TimeoutMS = 8000
	}
}

func (c *Config) Validate() error {
	switch c.Tasks.Variant {
	case "tags", "metrics":
	default:
		return fmt.Errorf("tasks.variant: unknown variant %q", c.Tasks.Variant)
	}
	switch c.Tasks.PeriodConvention {
	case "iso", "month":
	default:
		return fmt.Errorf("tasks.period_convention: unknown convention %q", c.Tasks.PeriodConvention)
	}
	switch c.Tasks.Store {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("tasks.store: unknown store %q", c.Tasks.Store)
	}
	switch c.Suggestions.Provider {
	case "anthropic", "static":
	default:
		return fmt.Errorf("suggestions.provider: unknown provider %q", c.Suggestions.Provider)
	}
	return nil
}

// Load reads a yaml config file, applying defaults for absent fields.
// A missing file yields the default configuration.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
