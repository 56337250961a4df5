package errors

import "fmt"

// Common error types.
var (
	// Acquisition errors. Every failure surfaced by the engine matches exactly one of these.
	ErrManifest     = fmt.Errorf("manifest error")
	ErrNotFound     = fmt.Errorf("not found")
	ErrNetwork      = fmt.Errorf("network error")
	ErrSizeMismatch = fmt.Errorf("size mismatch")
	ErrHashMismatch = fmt.Errorf("hash mismatch")
	ErrArchive      = fmt.Errorf("archive error")
	ErrFilesystem   = fmt.Errorf("filesystem error")
	ErrState        = fmt.Errorf("invalid state")
	ErrCancelled    = fmt.Errorf("download cancelled")

	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigMarshal     = fmt.Errorf("failed to marshal config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to replace config file")

	// Settings validation errors.
	ErrHTTPTimeoutNegative    = fmt.Errorf("http_timeout cannot be negative")
	ErrConnectTimeoutNegative = fmt.Errorf("connect_timeout cannot be negative")
	ErrMaxConcurrentInvalid   = fmt.Errorf("max_concurrent must be at least 1")
	ErrModelsDirEmpty         = fmt.Errorf("models_dir cannot be empty")
)

// ErrInvalidOutputFormatWithDetails returns an error for an unknown output format.
func ErrInvalidOutputFormatWithDetails(format string) error {
	return fmt.Errorf("invalid output format %q, must be one of: text, json: %w", format, ErrConfigValidation)
}

// ErrInvalidLogLevelWithDetails returns an error for an unknown log level.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error: %w", level, ErrConfigValidation)
}

// ErrInvalidModelConfig returns an error for a configured model entry that cannot be used.
func ErrInvalidModelConfig(index int, reason string) error {
	return fmt.Errorf("models[%d]: %s: %w", index, reason, ErrConfigValidation)
}

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
