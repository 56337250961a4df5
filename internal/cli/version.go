package cli

import (
	"fmt"
	"runtime"

	"github.com/cperrin88/modelvault/pkg/manifest"
	"github.com/spf13/cobra"
)

// Build information. Overridden at link time with -ldflags "-X".
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version information for modelvault",
		Run:   runVersion,
	}

	return cmd
}

func runVersion(*cobra.Command, []string) {
	_, _ = fmt.Fprintf(stdout, "modelvault version %s\n", Version)
	_, _ = fmt.Fprintf(stdout, "Build date: %s\n", BuildDate)
	_, _ = fmt.Fprintf(stdout, "Git commit: %s\n", GitCommit)
	_, _ = fmt.Fprintf(stdout, "Manifest versions: %s\n", manifest.SupportedVersions)
	_, _ = fmt.Fprintf(stdout, "Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
