package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizpath/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history [attempt-id]",
	Short: "Summarise recent attempt activity from the local journal",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		repo := s.EventRepo()

		if len(args) == 1 {
			id, err := parseAttemptID(args[0])
			if err != nil {
				return err
			}
			events, err := repo.Query(ctx, store.QueryOpts{AttemptID: id, Limit: limit})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			if len(events) == 0 {
				fmt.Fprintf(out, "No journal entries for attempt %d.\n", id)
				return nil
			}
			for _, e := range events {
				fmt.Fprintf(out, "%-6d  %s  %-18s  %s\n",
					e.Sequence,
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					e.Kind,
					journalDetail(e),
				)
			}
			return nil
		}

		sums, err := repo.Summaries(ctx, limit)
		if err != nil {
			return fmt.Errorf("summarise journal: %w", err)
		}
		if len(sums) == 0 {
			fmt.Fprintln(out, "No activity recorded yet.")
			return nil
		}

		fmt.Fprintf(out, "%-8s  %-16s  %-8s  %-8s  %-6s  %-8s  %s\n",
			"Attempt", "Last seen", "Answers", "Correct", "Time", "Failures", "Status")
		fmt.Fprintln(out, strings.Repeat("─", 80))
		for _, sum := range sums {
			status := sum.LastStatus
			if status == "" {
				status = "IN_PROGRESS"
			}
			fmt.Fprintf(out, "%-8d  %-16s  %-8d  %-8d  %-6s  %-8d  %s\n",
				sum.AttemptID,
				sum.LastSeen.Local().Format("2006-01-02 15:04"),
				sum.Answers,
				sum.Correct,
				fmt.Sprintf("%d:%02d", sum.TotalRespTime/60, sum.TotalRespTime%60),
				sum.Failures,
				status,
			)
		}
		return nil
	},
}

func journalDetail(e store.Event) string {
	var parts []string
	if e.QuestionID != 0 {
		parts = append(parts, fmt.Sprintf("q%d", e.QuestionID))
	}
	if e.Difficulty != "" {
		parts = append(parts, e.Difficulty)
	}
	if e.Correct != nil {
		if *e.Correct {
			parts = append(parts, "correct")
		} else {
			parts = append(parts, "incorrect")
		}
	}
	if e.ResponseTime > 0 {
		parts = append(parts, fmt.Sprintf("%ds", e.ResponseTime))
	}
	if e.Status != "" {
		parts = append(parts, e.Status)
	}
	if e.Message != "" {
		parts = append(parts, fmt.Sprintf("%q", e.Message))
	}
	return strings.Join(parts, "  ")
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of rows")
}
