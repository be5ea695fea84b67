package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"keygate/internal/app"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port int
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the expiration sweeper",
		Long: `Run the HTTP API and the hourly expiration sweeper until interrupted.

Example:
  keygate serve
  keygate serve --port 8080
  KEYGATE_STORE_DRIVER=memory keygate serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "listen port (overrides configuration)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.Port != 0 {
		if opts.Port < 0 || opts.Port > 65535 {
			return fmt.Errorf("invalid port: %d", opts.Port)
		}
		cfg.Server.Port = opts.Port
	}

	application, err := app.NewApplication(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run(cmd.Context())
}
