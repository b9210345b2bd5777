package cmd

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/examwhisperer/whisper/internal/chat"
)

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask the tutor a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		persona, _ := cmd.Flags().GetString("persona")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctrl := chat.New(e.client, chat.Options{
			Username: e.cfg.Username,
			Topic:    topic,
			Settings: e.settings,
			Logger:   e.log,
		})
		defer ctrl.Close()

		if persona != "" {
			tmpl, ok := lo.Find(chat.PromptTemplates(), func(t chat.PromptTemplate) bool {
				return strings.EqualFold(t.Name, persona)
			})
			if !ok {
				names := lo.Map(chat.PromptTemplates(), func(t chat.PromptTemplate, _ int) string { return t.Name })
				return fmt.Errorf("unknown persona %q (choose from: %s)", persona, strings.Join(names, ", "))
			}
			params := ctrl.Context()
			params.SystemPrompt = tmpl.Prompt
			if err := ctrl.SetContext(params); err != nil {
				return err
			}
		}

		sendErr := ctrl.SendMessage(cmd.Context(), strings.Join(args, " "))

		// A failed request still leaves an assistant message explaining it.
		msgs := ctrl.Messages()
		if len(msgs) > 0 && msgs[len(msgs)-1].Role == chat.RoleAssistant {
			fmt.Fprintln(cmd.OutOrStdout(), wordwrap.String(msgs[len(msgs)-1].Content, 80))
		}
		return sendErr
	},
}

func init() {
	askCmd.Flags().String("topic", "", "Topic to focus the answer on")
	askCmd.Flags().String("persona", "", "Tutor persona, e.g. \"Math Tutor\"")
}
