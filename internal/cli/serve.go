package cli

import (
	"github.com/spf13/cobra"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the listeners and requesters and block until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}
			conn, err := Build(cfg)
			if err != nil {
				return err
			}
			return conn.App.Run(cmd.Context())
		},
	}
}
