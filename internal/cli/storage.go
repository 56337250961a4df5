package cli

import (
	"fmt"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/events"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewStorageCmd creates the storage command with subcommands.
func NewStorageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Manage the models directory",
		Long:  "Show disk usage of the models directory and discard partial downloads",
	}

	cmd.AddCommand(
		newStorageInfoCmd(),
		newStorageCleanCmd(),
		newStorageDirCmd(),
	)

	return cmd
}

func newStorageInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show disk usage",
		Long:  "Display how much space installed models and partial downloads use",
		RunE:  runStorageInfo,
	}

	return cmd
}

func newStorageCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [MODEL...]",
		Short: "Discard partial downloads",
		Long: `Remove partial downloads so the next download starts from scratch.
Without arguments every partial download is discarded. Installed models are kept.`,
		RunE: func(_ *cobra.Command, args []string) error {
			return runStorageClean(args)
		},
	}

	return cmd
}

func newStorageDirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dir",
		Short: "Show the models directory path",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(stdout, cfg.Settings.ModelsDir)
			return nil
		},
	}

	return cmd
}

func runStorageInfo(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := loadEngine(cfg, events.Discard)
	if err != nil {
		return err
	}

	usage, err := eng.Usage()
	if err != nil {
		return err
	}
	if jsonOutput(cfg) {
		return printJSON(usage)
	}

	_, _ = fmt.Fprintf(stdout, "Models Directory: %s\n", usage.Directory)
	_, _ = fmt.Fprintf(stdout, "Total Size: %s\n", humanize.IBytes(usage.InstalledBytes+usage.PartialBytes))
	_, _ = fmt.Fprintf(stdout, "Installed: %s (%d models)\n", humanize.IBytes(usage.InstalledBytes), usage.Installed)
	_, _ = fmt.Fprintf(stdout, "Partial: %s (%d downloads)\n", humanize.IBytes(usage.PartialBytes), usage.Partial)
	return nil
}

func runStorageClean(ids []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := loadEngine(cfg, events.Discard)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		for _, m := range eng.Models() {
			if m.PartialSize > 0 {
				ids = append(ids, m.ID)
			}
		}
	}

	var total uint64
	for _, id := range ids {
		freed, err := eng.DiscardPartial(id)
		if err != nil {
			return err
		}
		total += freed
	}

	logger.Success("Storage cleaning completed", logger.Fields{"total_freed": humanize.IBytes(total)})
	return nil
}
