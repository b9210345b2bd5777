package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/examwhisperer/whisper/internal/backend"
	quizsvc "github.com/examwhisperer/whisper/internal/quiz"
	"github.com/examwhisperer/whisper/internal/screen"
	"github.com/examwhisperer/whisper/internal/screens/home"
	quizscreen "github.com/examwhisperer/whisper/internal/screens/quiz"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Open the quiz screen, starting right away when a topic is given",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		level, _ := cmd.Flags().GetString("difficulty")
		count, _ := cmd.Flags().GetInt("count")

		difficulty := backend.Difficulty(strings.ToLower(level))
		if !difficulty.Valid() {
			return fmt.Errorf("difficulty must be easy, medium or hard, got %q", level)
		}
		if count < quizsvc.MinQuestions || count > quizsvc.MaxQuestions {
			return fmt.Errorf("count must be between %d and %d, got %d", quizsvc.MinQuestions, quizsvc.MaxQuestions, count)
		}

		return runApp(cmd, func(d home.Deps) screen.Screen {
			return d.NewQuiz(quizscreen.Options{
				Topic:      topic,
				Difficulty: difficulty,
				Count:      count,
				AutoStart:  strings.TrimSpace(topic) != "",
			})
		})
	},
}

func init() {
	quizCmd.Flags().String("topic", "", "Quiz topic")
	quizCmd.Flags().String("difficulty", string(backend.DifficultyMedium), "easy, medium or hard")
	quizCmd.Flags().Int("count", 5, "Number of questions")
}
