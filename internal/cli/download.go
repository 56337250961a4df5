package cli

import (
	"fmt"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/spf13/cobra"
)

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	var (
		all         bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "download [MODEL...]",
		Short: "Download models",
		Long: `Download, verify and install one or more models.

Interrupted downloads resume where they stopped. Every model is verified against the
trusted manifest before it is installed. Press Ctrl-C to cancel; progress is kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("specify at least one model or --all")
			}
			return runDownload(cmd, args, all, concurrency)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Download every model in the catalog")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Number of parallel downloads (0=config)")

	return cmd
}

func runDownload(cmd *cobra.Command, ids []string, all bool, concurrency int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Settings.MaxConcurrent = concurrency
	}

	printer := newProgressPrinter(stdout, jsonOutput(cfg))

	eng, err := loadEngine(cfg, printer)
	if err != nil {
		return err
	}

	if all {
		ids = ids[:0]
		for _, m := range eng.Models() {
			ids = append(ids, m.ID)
		}
	}

	err = eng.AcquireAll(cmd.Context(), ids)
	printer.finish()

	if _, selErr := autoSelect(eng, loadStore(cfg)); selErr != nil {
		logger.Warn("Failed to update selected model", logger.Fields{"error": selErr.Error()})
	}
	return err
}
