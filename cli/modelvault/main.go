package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cperrin88/modelvault/internal/cli"
	"github.com/spf13/cobra"
)

var (
	configPath   string
	verbose      bool
	noColor      bool
	outputFormat string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cli.ReportError(os.Stdout, err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modelvault",
		Short: "Download and manage speech recognition models",
		Long: `modelvault acquires speech recognition models safely:
- downloads resume after interruption
- every model is verified against a trusted SHA-256 manifest
- archive models are unpacked without links or path traversal`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (text, json)")

	cli.ConfigPath = &configPath
	cli.Verbose = &verbose
	cli.NoColor = &noColor
	cli.OutputFormat = &outputFormat

	cmd.AddCommand(
		cli.NewListCmd(),
		cli.NewDownloadCmd(),
		cli.NewDeleteCmd(),
		cli.NewPathCmd(),
		cli.NewVerifyCmd(),
		cli.NewSelectCmd(),
		cli.NewCurrentCmd(),
		cli.NewRecommendCmd(),
		cli.NewStorageCmd(),
		cli.NewConfigCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
