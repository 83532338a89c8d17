package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/ncruces/go-strftime"
	"gopkg.in/yaml.v3"
)

// ConfigFile represents the YAML configuration
type ConfigFile struct {
	DateSources    []string `yaml:"date_sources"`
	DateFormat     string   `yaml:"date_format"`
	FilenameFormat string   `yaml:"filename_format"`
	MvCmd          string   `yaml:"mv_cmd"`
	Simulate       bool     `yaml:"simulate"`
}

// defaultConfigFile returns the built-in defaults, used when no config
// file exists and as the base the file and flags override.
func defaultConfigFile() *ConfigFile {
	return &ConfigFile{
		DateSources: []string{"exif", "file-created"},
		DateFormat:  "%Y%m%d_%H%M%S",
	}
}

// getConfigPath returns the path to the config file
func getConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".exif-rename.yaml"
	}
	return filepath.Join(home, ".exif-rename.yaml")
}

// configExists checks if config file exists
func configExists() bool {
	_, err := os.Stat(getConfigPath())
	return err == nil
}

// loadConfig loads configuration from the YAML file, filling unset keys
// from the defaults
func loadConfig() (*ConfigFile, error) {
	cfg := defaultConfigFile()

	data, err := os.ReadFile(getConfigPath())
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if len(cfg.DateSources) == 0 {
		cfg.DateSources = defaultConfigFile().DateSources
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = defaultConfigFile().DateFormat
	}
	return cfg, nil
}

// saveConfig saves configuration to the YAML file
func saveConfig(cfg *ConfigFile) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(getConfigPath(), data, 0644)
}

// Validate checks the configuration before any file is processed, so an
// unknown date source fails fast instead of surfacing mid-batch.
func (c *ConfigFile) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.DateSources, validation.Required, validation.By(validDateSources)),
		validation.Field(&c.DateFormat, validation.Required),
	); err != nil {
		return err
	}

	for _, s := range c.DateSources {
		if s == "file-name" && c.FilenameFormat == "" {
			return fmt.Errorf("date source %q requires filename_format", s)
		}
	}
	if c.FilenameFormat != "" {
		if _, err := strftime.Layout(c.FilenameFormat); err != nil {
			return fmt.Errorf("filename_format: %w", err)
		}
	}
	return nil
}

// validDateSources rejects unknown and duplicate source tags
func validDateSources(value interface{}) error {
	sources, _ := value.([]string)
	seen := make(map[string]bool)
	for _, s := range sources {
		if _, err := ParseDateSource(s); err != nil {
			return err
		}
		if seen[s] {
			return fmt.Errorf("duplicate date source %q", s)
		}
		seen[s] = true
	}
	return nil
}

// Build validates the merged configuration and produces the runtime
// Config the renamer consumes.
func (c *ConfigFile) Build() (*Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	sources := make([]DateSource, 0, len(c.DateSources))
	for _, s := range c.DateSources {
		ds, err := ParseDateSource(s)
		if err != nil {
			return nil, err
		}
		sources = append(sources, ds)
	}

	return &Config{
		DateSources:    sources,
		DateFormat:     c.DateFormat,
		FilenameFormat: c.FilenameFormat,
		MvCmd:          strings.Fields(c.MvCmd),
		Simulate:       c.Simulate,
	}, nil
}
