package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/examwhisperer/whisper/internal/topics"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List or add study topics",
}

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your topics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		list, err := topics.New(e.client, e.cfg.Username).List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list topics: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No topics yet. Add one with: whisper topics add <topic>")
			return nil
		}
		for _, t := range list {
			fmt.Fprintln(out, t)
		}
		return nil
	},
}

var topicsAddCmd = &cobra.Command{
	Use:   "add <topic...>",
	Short: "Add a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		topic := strings.Join(args, " ")
		if err := topics.New(e.client, e.cfg.Username).Add(cmd.Context(), topic); err != nil {
			return fmt.Errorf("add topic: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %q.\n", strings.TrimSpace(topic))
		return nil
	},
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)
	topicsCmd.AddCommand(topicsAddCmd)
}
