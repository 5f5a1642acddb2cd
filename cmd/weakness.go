package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizpath/internal/quiz"
	"github.com/abhisek/quizpath/internal/screens"
)

const dateLayout = "2006-01-02"

var weaknessCmd = &cobra.Command{
	Use:   "weakness",
	Short: "Show where answers go wrong, by question type",
	RunE: func(cmd *cobra.Command, args []string) error {
		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")

		to := time.Now()
		if toStr != "" {
			t, err := time.ParseInLocation(dateLayout, toStr, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --to date %q: want YYYY-MM-DD", toStr)
			}
			to = t
		}
		from := to.AddDate(0, 0, -30)
		if fromStr != "" {
			f, err := time.ParseInLocation(dateLayout, fromStr, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --from date %q: want YYYY-MM-DD", fromStr)
			}
			from = f
		}
		if from.After(to) {
			return fmt.Errorf("--from must not be after --to")
		}

		e, err := newEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		report, err := e.client.WeaknessReport(cmd.Context(), from, to)
		if err != nil {
			return fmt.Errorf("get weakness report: %s", screens.Message(err))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s to %s\n", from.Format(dateLayout), to.Format(dateLayout))
		fmt.Fprintf(out, "Questions answered: %d\n", report.TotalQuestions)
		fmt.Fprintf(out, "Rushing errors:     %d\n\n", report.RushingErrors)

		if len(report.StatsByType) == 0 {
			fmt.Fprintln(out, "No answers in this period.")
			return nil
		}

		types := make([]quiz.QuestionType, 0, len(report.StatsByType))
		for t := range report.StatsByType {
			types = append(types, t)
		}
		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

		fmt.Fprintf(out, "%-16s  %-9s  %-9s  %-8s  %s\n", "Type", "Attempted", "Incorrect", "Error %", "Avg time")
		fmt.Fprintln(out, strings.Repeat("─", 62))
		for _, t := range types {
			s := report.StatsByType[t]
			rate := 0.0
			if s.Attempted > 0 {
				rate = float64(s.Incorrect) / float64(s.Attempted) * 100
			}
			fmt.Fprintf(out, "%-16s  %-9d  %-9d  %7.1f%%  %.1fs\n", t, s.Attempted, s.Incorrect, rate, s.AverageTimeSec)
		}
		return nil
	},
}

func init() {
	weaknessCmd.Flags().String("from", "", "Start date, YYYY-MM-DD (default 30 days before --to)")
	weaknessCmd.Flags().String("to", "", "End date, YYYY-MM-DD (default today)")
}
