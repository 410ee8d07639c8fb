package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/httpconnector/bootstrap"
)

func newCheckCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Start everything once, report component health and stop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}
			conn, err := Build(cfg, bootstrap.WithoutSummary())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return conn.App.RunTask(cmd.Context(), func(ctx context.Context) error {
				for _, h := range conn.App.Components.HealthAll(ctx) {
					line := fmt.Sprintf("%-30s %s", h.Name, h.Status)
					if h.Message != "" {
						line += " (" + h.Message + ")"
					}
					fmt.Fprintln(out, line)
				}
				return conn.App.ReadyCheck(ctx)
			})
		},
	}
}
