package cli

import (
	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/events"
	"github.com/cperrin88/modelvault/pkg/settings"
	"github.com/spf13/cobra"
)

// NewDeleteCmd creates the delete command.
func NewDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete MODEL...",
		Aliases: []string{"rm"},
		Short:   "Delete downloaded models",
		Long: `Delete installed models together with any partial download.
A model that is being downloaded by another process cannot be deleted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runDelete(args)
		},
	}

	return cmd
}

func runDelete(ids []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := loadEngine(cfg, events.Discard)
	if err != nil {
		return err
	}
	store := loadStore(cfg)

	for _, id := range ids {
		if err := eng.Delete(id); err != nil {
			return err
		}
		logger.Success("Model deleted", logger.Fields{"model": id})
		if err := clearSelection(store, id); err != nil {
			return err
		}
	}

	_, err = autoSelect(eng, store)
	return err
}

// clearSelection forgets id when it was the selected model.
func clearSelection(store settings.Store, id string) error {
	selected, err := store.SelectedModel()
	if err != nil || selected != id {
		return err
	}
	return store.SetSelectedModel("")
}
