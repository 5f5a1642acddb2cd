package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizpath/internal/quiz"
	"github.com/abhisek/quizpath/internal/screens"
)

var resultsCmd = &cobra.Command{
	Use:   "results <attempt-id>",
	Short: "Show the graded results of a finished attempt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseAttemptID(args[0])
		if err != nil {
			return err
		}
		e, err := newEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		r, err := e.client.Results(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get results: %s", screens.Message(err))
		}
		printResult(cmd.OutOrStdout(), r)
		return nil
	},
}

var completedCmd = &cobra.Command{
	Use:   "completed",
	Short: "List finished attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		list, err := e.client.CompletedAttempts(cmd.Context())
		if err != nil {
			return fmt.Errorf("list completed attempts: %s", screens.Message(err))
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No completed attempts.")
			return nil
		}

		fmt.Fprintf(out, "%-8s  %-30s  %-16s  %-7s  %-8s  %s\n", "ID", "Quiz", "Completed", "Score", "Correct", "Time")
		fmt.Fprintln(out, strings.Repeat("─", 86))
		for _, r := range list {
			completed := "-"
			if r.CompletedAt != nil {
				completed = r.CompletedAt.Local().Format("2006-01-02 15:04")
			}
			fmt.Fprintf(out, "%-8d  %-30s  %-16s  %6.1f%%  %3d/%-4d  %s\n",
				r.AttemptID,
				truncate(r.QuizTitle, 30),
				completed,
				r.Score,
				r.CorrectAnswers,
				r.TotalQuestions,
				screens.Clock(time.Duration(r.AttemptTime)*time.Second),
			)
		}
		return nil
	},
}

func printResult(w io.Writer, r *quiz.AttemptResult) {
	fmt.Fprintf(w, "Attempt:   %d\n", r.AttemptID)
	fmt.Fprintf(w, "Quiz:      %s (#%d)\n", r.QuizTitle, r.QuizID)
	fmt.Fprintf(w, "Score:     %.1f%%  (%d/%d correct)\n", r.Score, r.CorrectAnswers, r.TotalQuestions)
	fmt.Fprintf(w, "Time:      %s\n", screens.Clock(time.Duration(r.AttemptTime)*time.Second))
	if r.CompletedAt != nil {
		fmt.Fprintf(w, "Completed: %s\n", r.CompletedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if len(r.Questions) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("─", 60))
	for i, q := range r.Questions {
		mark := "✓"
		if !q.IsCorrect {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %2d. %s\n", mark, i+1, q.Text)
		if q.Type == quiz.OpenEnded {
			fmt.Fprintf(w, "       answer: %q\n", q.TextResponse)
			continue
		}
		for _, a := range q.Answers {
			prefix := "  "
			switch {
			case a.IsSelected && a.IsCorrect:
				prefix = "✓ "
			case a.IsSelected:
				prefix = "✗ "
			case a.IsCorrect:
				prefix = "→ "
			}
			fmt.Fprintf(w, "       %s%s\n", prefix, a.Text)
		}
	}
}
