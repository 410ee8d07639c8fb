// Package cli implements the httpconnector command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/httpconnector/version"
)

const serviceName = version.Product

// NewRootCommand creates the httpconnector command tree.
func NewRootCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   serviceName,
		Short: "Shared HTTP listeners and authenticated requesters",
		Long: `httpconnector runs the HTTP listeners and requesters declared in a
configuration file. Requesters with the same name share one pooled
transport; listeners naming the same server share one socket.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the config file (default: ./config.yml)")

	cmd.AddCommand(newServeCommand(&configPath))
	cmd.AddCommand(newCheckCommand(&configPath))
	return cmd
}
