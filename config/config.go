// Package config loads the YAML settings shared by the synctrack
// command-line tools: which endpoint to dial, where to save, and what
// history sink (if any) to record editor activity to.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete synctrack tool configuration.
type Config struct {
	Editor  EditorConfig  `yaml:"editor"`
	Storage StorageConfig `yaml:"storage"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// EditorConfig contains settings for reaching a live editor.
type EditorConfig struct {
	Endpoint string  `yaml:"endpoint"` // host[:port]; empty leaves synctrack-serve on its -listen address
	RPM      float32 `yaml:"rpm"`
}

// StorageConfig contains the CTF save-file path.
type StorageConfig struct {
	SaveFile string `yaml:"save_file"`
}

// HistoryConfig contains the optional SQLite audit-log sink settings.
type HistoryConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Path            string        `yaml:"path"`
	PreflightBudget time.Duration `yaml:"preflight_budget"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load loads configuration from a YAML file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Editor.RPM == 0 {
		cfg.Editor.RPM = 60
	}
	return &cfg, nil
}

// Print displays the configuration.
func (c *Config) Print() {
	endpoint := c.Editor.Endpoint
	if endpoint == "" {
		endpoint = "(default)"
	}
	fmt.Printf("Editor: %s (rpm=%.1f)\n", endpoint, c.Editor.RPM)
	if c.Storage.SaveFile != "" {
		fmt.Printf("Save file: %s\n", c.Storage.SaveFile)
	}
	if c.History.Enabled {
		fmt.Printf("History: %s\n", c.History.Path)
	}
}
