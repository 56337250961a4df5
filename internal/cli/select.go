package cli

import (
	"fmt"
	"sort"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/engine"
	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/pkg/events"
	"github.com/cperrin88/modelvault/pkg/model"
	"github.com/cperrin88/modelvault/pkg/settings"
	"github.com/spf13/cobra"
)

// NewSelectCmd creates the select command.
func NewSelectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select MODEL",
		Short: "Select the model used for transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			eng, err := loadEngine(cfg, events.Discard)
			if err != nil {
				return err
			}
			if err := selectModel(eng, loadStore(cfg), args[0]); err != nil {
				return err
			}
			logger.Success("Model selected", logger.Fields{"model": args[0]})
			return nil
		},
	}

	return cmd
}

// NewCurrentCmd creates the current command.
func NewCurrentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show the selected model",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			eng, err := loadEngine(cfg, events.Discard)
			if err != nil {
				return err
			}
			id, err := autoSelect(eng, loadStore(cfg))
			if err != nil {
				return err
			}
			if jsonOutput(cfg) {
				return printJSON(map[string]string{"model": id})
			}
			if id == "" {
				_, _ = fmt.Fprintln(stdout, "No model selected")
				return nil
			}
			_, _ = fmt.Fprintln(stdout, id)
			return nil
		},
	}

	return cmd
}

// NewRecommendCmd creates the recommend command.
func NewRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Show the model recommended for a first download",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			eng, err := loadEngine(cfg, events.Discard)
			if err != nil {
				return err
			}
			installed := eng.AnyDownloaded()
			if jsonOutput(cfg) {
				return printJSON(map[string]any{"model": model.RecommendedFirstModel, "any_downloaded": installed})
			}
			_, _ = fmt.Fprintln(stdout, model.RecommendedFirstModel)
			if !installed {
				_, _ = fmt.Fprintf(stdout, "No models installed yet. Run 'modelvault download %s' to get started.\n", model.RecommendedFirstModel)
			}
			return nil
		},
	}

	return cmd
}

// selectModel persists id as the selection. Only installed models can be selected.
func selectModel(eng *engine.Engine, store settings.Store, id string) error {
	st, err := eng.Status(id)
	if err != nil {
		return err
	}
	if !st.Downloaded {
		return errors.Wrapf(errors.ErrState, "model %s is not downloaded", id)
	}
	return store.SetSelectedModel(id)
}

// autoSelect returns the selected model. When nothing valid is selected it picks the first
// installed model by id and persists that choice. It returns "" when no model is installed.
func autoSelect(eng *engine.Engine, store settings.Store) (string, error) {
	selected, err := store.SelectedModel()
	if err != nil {
		return "", err
	}
	if selected != "" {
		if st, err := eng.Status(selected); err == nil && st.Downloaded {
			return selected, nil
		}
	}

	var installed []string
	for _, m := range eng.Models() {
		if m.Downloaded {
			installed = append(installed, m.ID)
		}
	}
	if len(installed) == 0 {
		return "", nil
	}
	sort.Strings(installed)
	if err := store.SetSelectedModel(installed[0]); err != nil {
		return "", err
	}
	logger.Info("Auto-selected installed model", logger.Fields{"model": installed[0]})
	return installed[0], nil
}
