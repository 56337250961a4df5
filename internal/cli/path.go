package cli

import (
	"fmt"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/pkg/events"
	"github.com/cperrin88/modelvault/pkg/verify"
	"github.com/spf13/cobra"
)

// NewPathCmd creates the path command.
func NewPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path MODEL",
		Short: "Print the installed path of a model",
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
			p, err := eng.ModelPath(args[0])
			if err != nil {
				return err
			}
			if jsonOutput(cfg) {
				return printJSON(map[string]string{"model": args[0], "path": p})
			}
			_, _ = fmt.Fprintln(stdout, p)
			return nil
		},
	}

	return cmd
}

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify MODEL...",
		Short: "Verify installed models against the manifest",
		Long: `Recompute the SHA-256 digest of installed single-file models and compare it
with the trusted manifest. Archive models are verified when they are installed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runVerify(args)
		},
	}

	return cmd
}

func runVerify(ids []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := loadEngine(cfg, events.Discard)
	if err != nil {
		return err
	}
	v := verify.NewVerifier()

	for _, id := range ids {
		info, err := eng.Model(id)
		if err != nil {
			return err
		}
		if info.Directory {
			logger.Info("Archive models are verified at install time, skipping", logger.Fields{"model": id})
			continue
		}
		p, err := eng.ModelPath(id)
		if err != nil {
			return err
		}
		digest, err := eng.Digest(id)
		if err != nil {
			return err
		}
		if err := v.Verify(p, digest); err != nil {
			return errors.Wrapf(err, "model %s", id)
		}
		logger.Success("Model verified", logger.Fields{"model": id, "sha256": digest.SHA256})
	}
	return nil
}
