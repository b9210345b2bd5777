package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable and compatible",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.HealthTimeout)
		defer cancel()

		h, err := e.client.Health(ctx)
		if err != nil {
			return fmt.Errorf("backend at %s: %w", e.cfg.BaseURL, err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Backend:  %s\n", e.cfg.BaseURL)
		fmt.Fprintf(out, "Status:   ok\n")
		if h.Version != "" {
			fmt.Fprintf(out, "Version:  %s\n", h.Version)
		}
		return nil
	},
}
