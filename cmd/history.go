package cmd

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/examwhisperer/whisper/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded backend requests and quiz results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyQuizzesCmd.RunE(cmd, args)
	},
}

var historyRequestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List recent backend requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryRequests(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No requests recorded.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-18s  %-10s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Operation", "Purpose", "Status", "Ms", "OK")
		fmt.Fprintln(out, strings.Repeat("─", 84))

		for _, e := range events {
			if purpose != "" && e.Purpose != purpose {
				continue
			}
			ok := "✓"
			if !e.Success {
				ok = "✗ " + truncate(e.ErrorMessage, 40)
			}
			status := "-"
			if e.StatusCode > 0 {
				status = fmt.Sprint(e.StatusCode)
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-18s  %-10s  %-6s  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Operation,
				truncate(e.Purpose, 10),
				status,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var historyQuizzesCmd = &cobra.Command{
	Use:   "quizzes",
	Short: "List finished quizzes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		results, err := s.EventRepo().QueryQuizResults(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query quizzes: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintln(out, "No quizzes yet.")
			return nil
		}

		fmt.Fprintf(out, "%-14s  %-28s  %-8s  %7s  %6s\n", "When", "Topic", "Level", "Score", "Acc")
		fmt.Fprintln(out, strings.Repeat("─", 72))

		var correct, total int
		for _, r := range results {
			acc := 0.0
			if r.Total > 0 {
				acc = float64(r.Correct) / float64(r.Total) * 100
			}
			fmt.Fprintf(out, "%-14s  %-28s  %-8s  %3d/%-3d  %5.0f%%\n",
				humanize.Time(r.Timestamp),
				truncate(r.Topic, 28),
				r.Difficulty,
				r.Correct, r.Total,
				acc,
			)
			correct += r.Correct
			total += r.Total
		}

		fmt.Fprintln(out, strings.Repeat("─", 72))
		if total > 0 {
			fmt.Fprintf(out, "%-14s  %-28s  %-8s  %3d/%-3d  %5.0f%%\n",
				"TOTAL", "", "", correct, total, float64(correct)/float64(total)*100)
		}
		return nil
	},
}

var historyUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show request counts and latency per backend operation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		usage, err := s.EventRepo().UsageByOperation(cmd.Context())
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(usage) == 0 {
			fmt.Fprintln(out, "No requests recorded yet.")
			return nil
		}

		fmt.Fprintf(out, "%-20s  %6s  %8s  %8s\n", "Operation", "Calls", "Failed", "Avg Ms")
		fmt.Fprintln(out, strings.Repeat("─", 50))
		var calls, failures int
		for _, u := range usage {
			fmt.Fprintf(out, "%-20s  %6d  %8d  %8d\n", u.Operation, u.Calls, u.Failures, u.AvgLatencyMs)
			calls += u.Calls
			failures += u.Failures
		}
		fmt.Fprintln(out, strings.Repeat("─", 50))
		fmt.Fprintf(out, "%-20s  %6d  %8d\n", "TOTAL", calls, failures)
		return nil
	},
}

// openStore opens only the local database; history needs no backend.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func init() {
	historyRequestsCmd.Flags().Int("limit", 50, "Maximum number of events")
	historyRequestsCmd.Flags().String("purpose", "", "Only show events with this purpose (chat, quiz, topics, ...)")
	historyQuizzesCmd.Flags().Int("limit", 50, "Maximum number of quizzes")
	historyCmd.Flags().Int("limit", 50, "Maximum number of quizzes")

	historyCmd.AddCommand(historyRequestsCmd)
	historyCmd.AddCommand(historyQuizzesCmd)
	historyCmd.AddCommand(historyUsageCmd)
}
