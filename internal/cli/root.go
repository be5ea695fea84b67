package cli

import (
	"github.com/spf13/cobra"

	"keygate/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command for the keygate CLI. Running it
// without a subcommand starts the server.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	serve := NewServeCommand(opts)

	cmd := &cobra.Command{
		Use:   config.AppName,
		Short: "keygate - license key issuing and verification service",
		Long: `keygate issues license keys, binds each key to the first hardware id
that verifies it, and removes keys once they expire.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file (default: $KEYGATE_CONFIG, ./keygate.yaml, ./configs/keygate.yaml)")

	cmd.AddCommand(serve)
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// loadConfig reads the configuration selected by the global flags
func (o *RootOptions) loadConfig() (*config.Config, error) {
	return config.Load(o.ConfigPath)
}
