package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/config"
	"github.com/cperrin88/modelvault/pkg/download"
	"github.com/cperrin88/modelvault/pkg/engine"
	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/pkg/events"
	"github.com/cperrin88/modelvault/pkg/manifest"
	"github.com/cperrin88/modelvault/pkg/settings"
	"github.com/fatih/color"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	Verbose      *bool
	NoColor      *bool
	OutputFormat *string
)

// stdout is where command results go.
var stdout io.Writer = os.Stdout

// SetOutput redirects command results to w.
func SetOutput(w io.Writer) {
	stdout = w
}

// loadConfig loads the configuration, applies the global flags and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if NoColor != nil && *NoColor {
		color.NoColor = true
	}

	logger.InitLogger(cfg.Settings.LogLevel, logger.OutputFormat(cfg.Settings.OutputFormat))
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}
	return config.GetDefaultConfigPath()
}

// loadEngine builds an engine from cfg. The manifest is mandatory.
func loadEngine(cfg *config.Config, sink events.Sink) (*engine.Engine, error) {
	m, err := manifest.LoadFile(cfg.Settings.ManifestPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded model manifest", logger.Fields{
		"path":    cfg.Settings.ManifestPath,
		"version": m.Version(),
		"models":  m.Len(),
	})

	return engine.New(engine.Options{
		ModelsDir:     cfg.Settings.ModelsDir,
		BundledDir:    cfg.Settings.BundledDir,
		Catalog:       cfg.Catalog(),
		Manifest:      m,
		Fetcher:       download.NewSession(cfg.Settings.SessionOptions()),
		Sink:          sink,
		MaxConcurrent: cfg.Settings.MaxConcurrent,
	})
}

func loadStore(cfg *config.Config) settings.Store {
	return settings.NewFileStore(cfg.Settings.StatePath)
}

func jsonOutput(cfg *config.Config) bool {
	return cfg.Settings.OutputFormat == OutputJSON
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ReportError prints err for the user. In JSON mode the classified form is written to stdout.
func ReportError(w io.Writer, err error) {
	ce := errors.Classify(err)
	if OutputFormat != nil && *OutputFormat == OutputJSON {
		enc := json.NewEncoder(w)
		_ = enc.Encode(struct {
			Error *errors.CommandError `json:"error"`
		}{ce})
		return
	}
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", red("Error:"), ce.Message)
	if ce.Detail != "" {
		_, _ = fmt.Fprintf(os.Stderr, "  %s\n", ce.Detail)
	}
}
