package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizpath/internal/attempt"
	"github.com/abhisek/quizpath/internal/screen"
	"github.com/abhisek/quizpath/internal/screens"
	attemptscreen "github.com/abhisek/quizpath/internal/screens/attempt"
	"github.com/abhisek/quizpath/internal/screens/join"
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join a quiz with an access code",
	Long:  "Validates the access code, starts (or reuses) an attempt and opens it. Without --quiz and --code the join form is shown instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		quizID, _ := cmd.Flags().GetInt64("quiz")
		code, _ := cmd.Flags().GetString("code")
		noOpen, _ := cmd.Flags().GetBool("no-open")

		if quizID == 0 && code == "" {
			return runApp(cmd, func(d *screens.Deps) screen.Screen { return join.New(d) }, false)
		}

		e, err := newEnv(cmd, false)
		if err != nil {
			return err
		}
		id, err := attempt.Join(cmd.Context(), e.client, quizID, code)
		e.Close()
		if err != nil {
			switch {
			case errors.Is(err, attempt.ErrNoAccessCode):
				return errors.New(attempt.MsgNoAccessCode)
			case errors.Is(err, attempt.ErrInvalidQuizID):
				return errors.New(attempt.MsgInvalidQuizID)
			case errors.Is(err, attempt.ErrAccessCodeRejected):
				return errors.New(attempt.MsgRejectedAccessCode)
			}
			return fmt.Errorf("join quiz %d: %s", quizID, screens.Message(err))
		}

		if noOpen {
			fmt.Fprintf(cmd.OutOrStdout(), "Attempt %d started.\n", id)
			return nil
		}
		return runApp(cmd, func(d *screens.Deps) screen.Screen { return attemptscreen.New(d, id) }, false)
	},
}

func init() {
	joinCmd.Flags().Int64("quiz", 0, "Quiz ID")
	joinCmd.Flags().String("code", "", "Six-character access code")
	joinCmd.Flags().Bool("no-open", false, "Start the attempt and print its ID without opening it")
}
