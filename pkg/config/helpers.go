package config

import (
	"fmt"
	"strconv"
	"time"
)

// Keys lists the settings addressable by GetValue and SetValue, in display order.
func Keys() []string {
	return []string{
		"models_dir",
		"manifest_path",
		"bundled_dir",
		"state_path",
		"http_timeout",
		"connect_timeout",
		"user_agent",
		"max_concurrent",
		"output_format",
		"log_level",
	}
}

// SetValue sets a configuration value by key. The result is not validated; call Validate
// before saving.
func (c *Config) SetValue(key, value string) error {
	s := &c.Settings
	switch key {
	case "models_dir":
		s.ModelsDir = value
	case "manifest_path":
		s.ManifestPath = value
	case "bundled_dir":
		s.BundledDir = value
	case "state_path":
		s.StatePath = value
	case "http_timeout", "connect_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %s", key, value)
		}
		if key == "http_timeout" {
			s.HTTPTimeout = d
		} else {
			s.ConnectTimeout = d
		}
	case "user_agent":
		s.UserAgent = value
	case "max_concurrent":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		s.MaxConcurrent = n
	case "output_format":
		s.OutputFormat = value
	case "log_level":
		s.LogLevel = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// GetValue returns the value of a configuration key as a string.
func (c *Config) GetValue(key string) (string, error) {
	s := c.Settings
	switch key {
	case "models_dir":
		return s.ModelsDir, nil
	case "manifest_path":
		return s.ManifestPath, nil
	case "bundled_dir":
		return s.BundledDir, nil
	case "state_path":
		return s.StatePath, nil
	case "http_timeout":
		return s.HTTPTimeout.String(), nil
	case "connect_timeout":
		return s.ConnectTimeout.String(), nil
	case "user_agent":
		return s.UserAgent, nil
	case "max_concurrent":
		return strconv.Itoa(s.MaxConcurrent), nil
	case "output_format":
		return s.OutputFormat, nil
	case "log_level":
		return s.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// ToMap returns every setting keyed by its YAML name. This is useful for displaying the
// configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string, len(Keys()))
	for _, k := range Keys() {
		v, _ := c.GetValue(k)
		result[k] = v
	}
	return result
}
