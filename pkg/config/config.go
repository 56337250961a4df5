// Package config provides configuration management for modelvault.
// It handles loading, validating and saving application settings and the optional list of
// additional or overriding model descriptors. Configuration is a YAML file; every value has a
// default derived from the per-user XDG directories.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cperrin88/modelvault/pkg/download"
	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/pkg/fsutil"
	"github.com/cperrin88/modelvault/pkg/model"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// General settings
	Settings Settings `yaml:"settings"`

	// Models adds descriptors to the built-in catalog or replaces entries with the same id.
	Models []model.Descriptor `yaml:"models,omitempty"`
}

// Settings represents general application settings.
type Settings struct {
	// Storage settings
	ModelsDir    string `yaml:"models_dir,omitempty"`
	ManifestPath string `yaml:"manifest_path,omitempty"`
	BundledDir   string `yaml:"bundled_dir,omitempty"`
	StatePath    string `yaml:"state_path,omitempty"`

	// Network settings
	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	UserAgent      string        `yaml:"user_agent,omitempty"`
	MaxConcurrent  int           `yaml:"max_concurrent"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // debug, info, warn, error
}

// Default configuration values.
const (
	// DefaultMaxConcurrent is the default number of models acquired in parallel.
	DefaultMaxConcurrent = 2

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2

	configFileName   = "config.yaml"
	manifestFileName = "manifest.yaml"
	stateFileName    = "state.yaml"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			ModelsDir:      fsutil.ModelsDir(),
			ManifestPath:   filepath.Join(fsutil.ConfigDir(), manifestFileName),
			StatePath:      filepath.Join(fsutil.StateDir(), stateFileName),
			HTTPTimeout:    download.DefaultTimeout,
			ConnectTimeout: download.DefaultConnectTimeout,
			UserAgent:      download.DefaultUserAgent,
			MaxConcurrent:  DefaultMaxConcurrent,
			OutputFormat:   "text",
			LogLevel:       "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveConfig writes the configuration to path through a temporary file and a rename.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := fsutil.CreateFilePerm(tempPath, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	_ = encoder.Close()
	if err := file.Close(); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigMarshal, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateSettings(c.Settings); err != nil {
		return err
	}
	return validateModels(c.Models)
}

func validateSettings(s Settings) error {
	if s.ModelsDir == "" {
		return fmt.Errorf("%w: %w", errors.ErrConfigValidation, errors.ErrModelsDirEmpty)
	}
	if s.HTTPTimeout < 0 {
		return fmt.Errorf("%w: %w", errors.ErrConfigValidation, errors.ErrHTTPTimeoutNegative)
	}
	if s.ConnectTimeout < 0 {
		return fmt.Errorf("%w: %w", errors.ErrConfigValidation, errors.ErrConnectTimeoutNegative)
	}
	if s.MaxConcurrent < 1 {
		return fmt.Errorf("%w: %w", errors.ErrConfigValidation, errors.ErrMaxConcurrentInvalid)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.OutputFormat] {
		return errors.ErrInvalidOutputFormatWithDetails(s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	return nil
}

func validateModels(models []model.Descriptor) error {
	ids := make(map[string]bool, len(models))
	for i, d := range models {
		if err := d.Validate(); err != nil {
			return errors.ErrInvalidModelConfig(i, err.Error())
		}
		if d.URL == "" {
			return errors.ErrInvalidModelConfig(i, "url cannot be empty")
		}
		if ids[d.ID] {
			return errors.ErrInvalidModelConfig(i, "duplicate model id "+d.ID)
		}
		ids[d.ID] = true
	}
	return nil
}

// Catalog returns the built-in catalog with the configured models applied.
func (c *Config) Catalog() []model.Descriptor {
	return model.MergeCatalog(model.DefaultCatalog(), c.Models)
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(fsutil.ConfigDir(), configFileName)
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig().Settings

	if c.Settings.ModelsDir == "" {
		c.Settings.ModelsDir = defaults.ModelsDir
	}
	if c.Settings.ManifestPath == "" {
		c.Settings.ManifestPath = defaults.ManifestPath
	}
	if c.Settings.StatePath == "" {
		c.Settings.StatePath = defaults.StatePath
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.HTTPTimeout
	}
	if c.Settings.ConnectTimeout == 0 {
		c.Settings.ConnectTimeout = defaults.ConnectTimeout
	}
	if c.Settings.UserAgent == "" {
		c.Settings.UserAgent = defaults.UserAgent
	}
	if c.Settings.MaxConcurrent == 0 {
		c.Settings.MaxConcurrent = defaults.MaxConcurrent
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.LogLevel
	}
}

// SessionOptions returns the download options derived from the settings.
func (s Settings) SessionOptions() download.Options {
	return download.Options{
		UserAgent:      s.UserAgent,
		Timeout:        s.HTTPTimeout,
		ConnectTimeout: s.ConnectTimeout,
	}
}
