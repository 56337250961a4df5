package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/config"
	"github.com/cperrin88/modelvault/pkg/fsutil"
	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command with subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and change settings",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return writeDefaultConfig(getConfigPath(), force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show all settings and configured models",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return showSettings(config.Keys(), true)
			},
		},
		&cobra.Command{
			Use:       "get KEY [KEY...]",
			Short:     "Print one or more settings",
			Args:      cobra.MinimumNArgs(1),
			ValidArgs: config.Keys(),
			RunE: func(_ *cobra.Command, args []string) error {
				return showSettings(args, false)
			},
		},
		&cobra.Command{
			Use:       "set KEY VALUE",
			Short:     "Change a setting",
			Args:      cobra.ExactArgs(2),
			ValidArgs: config.Keys(),
			RunE: func(_ *cobra.Command, args []string) error {
				return updateSetting(args[0], args[1])
			},
		},
		initCmd,
	)

	return cmd
}

// showSettings prints the requested keys. A single key in text mode prints the bare value so
// the output can be used in scripts.
func showSettings(keys []string, withModels bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	values := make(map[string]string, len(keys))
	for _, key := range keys {
		v, err := cfg.GetValue(key)
		if err != nil {
			return err
		}
		values[key] = v
	}

	if jsonOutput(cfg) {
		if !withModels {
			return printJSON(values)
		}
		return printJSON(map[string]any{"settings": values, "models": cfg.Models})
	}

	if len(keys) == 1 && !withModels {
		_, _ = fmt.Fprintln(stdout, values[keys[0]])
		return nil
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, TabWidth, ' ', 0)
	for _, key := range keys {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", key, values[key])
	}
	_ = tw.Flush()

	if withModels && len(cfg.Models) > 0 {
		_, _ = fmt.Fprintf(stdout, "\nCatalog overrides (%d):\n", len(cfg.Models))
		for _, m := range cfg.Models {
			_, _ = fmt.Fprintf(stdout, "  %s\t%s -> %s\n", m.ID, m.URL, m.Filename)
		}
	}
	return nil
}

// updateSetting applies key=value and saves the file only when the result validates.
func updateSetting(key, value string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.SetValue(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	path := getConfigPath()
	if err := cfg.SaveConfig(path); err != nil {
		return err
	}
	logger.Success("Setting saved", logger.Fields{"key": key, "value": value, "path": path})
	return nil
}

func writeDefaultConfig(path string, force bool) error {
	exists, err := fsutil.Exists(path)
	if err != nil {
		return err
	}
	if exists && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	if err := config.DefaultConfig().SaveConfig(path); err != nil {
		return err
	}
	logger.Success("Configuration written", logger.Fields{"path": path})
	return nil
}
