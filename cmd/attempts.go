package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizpath/internal/quiz"
	"github.com/abhisek/quizpath/internal/screen"
	"github.com/abhisek/quizpath/internal/screens"
	attemptscreen "github.com/abhisek/quizpath/internal/screens/attempt"
)

var attemptsCmd = &cobra.Command{
	Use:   "attempts",
	Short: "List attempts in progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		list, err := e.client.InProgressAttempts(cmd.Context())
		if err != nil {
			return fmt.Errorf("list attempts: %s", screens.Message(err))
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No attempts in progress.")
			return nil
		}

		fmt.Fprintf(out, "%-8s  %-30s  %-8s  %-16s  %s\n", "ID", "Quiz", "Mode", "Started", "Answered")
		fmt.Fprintln(out, strings.Repeat("─", 80))
		for _, a := range list {
			mode := "linear"
			if a.Adaptive {
				mode = "adaptive"
			}
			fmt.Fprintf(out, "%-8d  %-30s  %-8s  %-16s  %d/%d\n",
				a.ID,
				truncate(a.QuizTitle, 30),
				mode,
				a.StartedAt.Local().Format("2006-01-02 15:04"),
				answered(a.Responses),
				len(a.Questions),
			)
		}
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <attempt-id>",
	Short: "Open an attempt where it was left off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseAttemptID(args[0])
		if err != nil {
			return err
		}
		return runApp(cmd, func(d *screens.Deps) screen.Screen { return attemptscreen.New(d, id) }, false)
	},
}

func parseAttemptID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid attempt ID %q", s)
	}
	return id, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func answered(rs []quiz.Response) int {
	n := 0
	for _, r := range rs {
		if !r.Empty() {
			n++
		}
	}
	return n
}
