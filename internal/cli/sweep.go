package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"keygate/internal/app"
)

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired keys once and exit",
		Long: `Delete every key whose expiry is at or before now from the configured
store, print how many were removed, and exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}

			application, err := app.NewApplication(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			removed, sweepErr := application.SweepOnce(cmd.Context())
			closeErr := application.Close(cmd.Context())
			if sweepErr != nil {
				return errors.Join(fmt.Errorf("sweep failed: %w", sweepErr), closeErr)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired key(s)\n", removed)
			return closeErr
		},
	}
}
