package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/cperrin88/modelvault/pkg/events"
	"github.com/cperrin88/modelvault/pkg/model"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var downloadedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available models",
		Long: `List every model in the catalog with its status.

A model is "partial" when an interrupted download can be resumed.
Use --downloaded to show installed models only.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runList(downloadedOnly)
		},
	}

	cmd.Flags().BoolVar(&downloadedOnly, "downloaded", false, "Show installed models only")

	return cmd
}

func runList(downloadedOnly bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := loadEngine(cfg, events.Discard)
	if err != nil {
		return err
	}
	if _, err := autoSelect(eng, loadStore(cfg)); err != nil {
		return err
	}

	models := eng.Models()
	if downloadedOnly {
		filtered := models[:0]
		for _, m := range models {
			if m.Downloaded {
				filtered = append(filtered, m)
			}
		}
		models = filtered
	}

	if jsonOutput(cfg) {
		return printJSON(models)
	}

	if len(models) == 0 {
		_, _ = fmt.Fprintln(stdout, "No models installed")
		return nil
	}

	w := tabwriter.NewWriter(stdout, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tENGINE\tSIZE\tSTATUS\tDESCRIPTION")
	for _, m := range models {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			m.ID, m.Name, m.Engine, humanize.Bytes(m.SizeMB*humanize.MByte), statusLabel(m), truncate(m.Description, MaxDescriptionLength))
	}
	return w.Flush()
}

func statusLabel(m model.Info) string {
	switch {
	case m.Downloading:
		return color.YellowString("downloading")
	case m.Downloaded:
		return color.GreenString("installed")
	case m.PartialSize > 0:
		return color.YellowString("partial %s", humanize.IBytes(m.PartialSize))
	default:
		return "available"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n-3]) + "..."
}
