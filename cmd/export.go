package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizpath/internal/export"
	"github.com/abhisek/quizpath/internal/quiz"
	"github.com/abhisek/quizpath/internal/screens"
)

var exportCmd = &cobra.Command{
	Use:   "export [attempt-id...]",
	Short: "Export graded results to an Excel workbook",
	Long:  "Writes a summary sheet and one detail sheet per attempt. With --all every completed attempt is exported.",
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath, _ := cmd.Flags().GetString("out")
		all, _ := cmd.Flags().GetBool("all")
		if len(args) == 0 && !all {
			return fmt.Errorf("give at least one attempt ID or --all")
		}

		ids := make([]int64, 0, len(args))
		for _, a := range args {
			id, err := parseAttemptID(a)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		e, err := newEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		var results []*quiz.AttemptResult
		if all {
			results, err = e.client.CompletedAttempts(ctx)
			if err != nil {
				return fmt.Errorf("list completed attempts: %s", screens.Message(err))
			}
		}
		for _, id := range ids {
			r, err := e.client.Results(ctx, id)
			if err != nil {
				return fmt.Errorf("get results for %d: %s", id, screens.Message(err))
			}
			results = append(results, r)
		}
		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to export.")
			return nil
		}

		if err := export.WriteFile(outPath, results); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		e.logger.Info("exported results", "path", outPath, "attempts", len(results))
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d attempt(s) to %s\n", len(results), outPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "results.xlsx", "Output workbook path")
	exportCmd.Flags().Bool("all", false, "Export every completed attempt")
}
