package cmd

import (
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizpath/internal/logging"
	"github.com/abhisek/quizpath/internal/mockserver"
)

var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Run an in-memory attempt API for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		secret, _ := cmd.Flags().GetString("secret")
		level, _ := cmd.Flags().GetString("log-level")

		logger, closer, err := logging.New(logging.Options{Format: "text", Level: level})
		if err != nil {
			return err
		}
		defer closer.Close()

		opts := mockserver.DefaultOptions()
		opts.Logger = logger
		if secret != "" {
			opts.Secret = secret
		}
		srv := mockserver.New(opts)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Mock attempt API on %s\n", addr)
		sessions := srv.Sessions()
		sort.Slice(sessions, func(i, j int) bool { return sessions[i].QuizID < sessions[j].QuizID })
		for _, s := range sessions {
			fmt.Fprintf(out, "  quiz %d  access code %s  until %s\n",
				s.QuizID, s.AccessCode, s.EndTime.Local().Format("15:04"))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	mockServerCmd.Flags().String("addr", "localhost:8080", "Listen address")
	mockServerCmd.Flags().String("secret", "", "HMAC secret for login tokens")
	mockServerCmd.Flags().String("log-level", "info", "Log level")
}
