package cmd

import (
	"context"
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/examwhisperer/whisper/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "whisper",
	Short: "Terminal client for the Exam Whisperer tutor",
	Long:  "whisper: chat with an AI tutor, take multiple choice quizzes and manage study topics from the terminal.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadDotEnv()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, nil)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides WHISPER_DB env var)")
	rootCmd.PersistentFlags().String("user", "", "Username sent to the backend (overrides WHISPER_USER env var)")
	rootCmd.PersistentFlags().String("api-url", "", "Backend base URL (overrides WHISPER_API_URL env var)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(syllabusCmd)
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadDotEnv reads .env from the working directory when present. Variables
// already set in the environment win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then WHISPER_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
