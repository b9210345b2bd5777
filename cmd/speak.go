package cmd

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/examwhisperer/whisper/internal/speech"
)

var speakCmd = &cobra.Command{
	Use:   "speak <text...>",
	Short: "Synthesize speech for text and save it as an mp3",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		n, err := speech.New(e.client).WriteFile(cmd.Context(), strings.Join(args, " "), out)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s to %s\n", humanize.Bytes(uint64(n)), out)
		return nil
	},
}

func init() {
	speakCmd.Flags().StringP("output", "o", "speech.mp3", "Output file")
}
