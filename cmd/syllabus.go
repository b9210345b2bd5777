package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/examwhisperer/whisper/internal/syllabus"
)

var syllabusCmd = &cobra.Command{
	Use:   "syllabus <file.pdf>",
	Short: "Upload a syllabus PDF and list the topics it covers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		// Fail on a bad file before touching the network.
		pages, err := syllabus.Inspect(path)
		if err != nil {
			return err
		}

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.requireOnline(cmd.Context()); err != nil {
			return err
		}

		up := syllabus.New(e.client, syllabus.Options{
			Username: e.cfg.Username,
			Settings: e.settings,
			Logger:   e.log,
		})
		fmt.Fprintf(cmd.ErrOrStderr(), "Uploading %s (%d pages)...\n", path, pages)
		res, err := up.Upload(cmd.Context(), path)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), syllabus.Summary(path, res))
		return nil
	},
}
