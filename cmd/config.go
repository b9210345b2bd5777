package cmd

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/examwhisperer/whisper/internal/settings"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the LLM provider, model and API key",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		s := e.settings
		p, _ := settings.Lookup(s.Provider())

		key := s.MaskedKey()
		switch {
		case !p.RequiresKey():
			key = "(not needed)"
		case key == "":
			key = "(not set)"
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Backend:\t%s\n", e.cfg.BaseURL)
		fmt.Fprintf(w, "User:\t%s\n", e.cfg.Username)
		fmt.Fprintf(w, "Provider:\t%s (%s)\n", p.Label, p.Name)
		fmt.Fprintf(w, "Model:\t%s\n", s.Config().Model)
		fmt.Fprintf(w, "API key:\t%s\n", key)
		fmt.Fprintf(w, "Models:\t%s\n", strings.Join(s.Models(), ", "))
		return w.Flush()
	},
}

var configSetProviderCmd = &cobra.Command{
	Use:       "set-provider <name>",
	Short:     "Select the LLM provider (resets the model to its default)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: settings.ProviderNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.settings.SetProvider(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Provider set to %s, model %s.\n", e.settings.Provider(), e.settings.Model())
		return nil
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [key]",
	Short: "Store the API key; reads it from stdin when omitted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			fmt.Fprint(cmd.ErrOrStderr(), "API key: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read key: %w", err)
			}
			key = line
		}

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.settings.SetAPIKey(cmd.Context(), key); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "API key saved (%s).\n", e.settings.MaskedKey())
		return nil
	},
}

var configSetModelCmd = &cobra.Command{
	Use:   "set-model <model>",
	Short: "Select a model offered by the current provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		custom, _ := cmd.Flags().GetString("custom")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		if err := e.settings.SetModel(ctx, args[0]); err != nil {
			return err
		}
		if custom != "" {
			if err := e.settings.SetCustomModel(ctx, custom); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Model set to %s.\n", e.settings.Config().Model)
		return nil
	},
}

var configVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the API key by listing the provider's models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		v := &settings.Verifier{}
		models, err := v.Verify(cmd.Context(), e.settings.Config())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Key accepted by %s. %d models available:\n", e.settings.Provider(), len(models))
		for _, m := range models {
			fmt.Fprintln(out, "  "+m)
		}
		return nil
	},
}

func init() {
	configSetModelCmd.Flags().String("custom", "", "Model name to use with the \"custom\" entry (local providers)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetProviderCmd)
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configSetModelCmd)
	configCmd.AddCommand(configVerifyCmd)
}
