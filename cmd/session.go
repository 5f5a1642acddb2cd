package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizpath/internal/screens"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage timed quiz sessions (teachers)",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a timed session and print its access code",
	RunE: func(cmd *cobra.Command, args []string) error {
		quizID, _ := cmd.Flags().GetInt64("quiz")
		minutes, _ := cmd.Flags().GetInt("minutes")

		e, err := newEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		s, err := e.client.CreateSession(cmd.Context(), quizID, minutes)
		if err != nil {
			return fmt.Errorf("create session: %s", screens.Message(err))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Session:     %d\n", s.ID)
		fmt.Fprintf(out, "Quiz:        %d\n", s.QuizID)
		fmt.Fprintf(out, "Access code: %s\n", s.AccessCode)
		fmt.Fprintf(out, "Expires:     %s\n", s.EndTime.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

func init() {
	sessionCreateCmd.Flags().Int64("quiz", 0, "Quiz ID")
	sessionCreateCmd.Flags().Int("minutes", 60, "Session length in minutes")
	_ = sessionCreateCmd.MarkFlagRequired("quiz")

	sessionCmd.AddCommand(sessionCreateCmd)
}
