package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/quizpath/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "quizpath",
	Short: "Adaptive quiz client",
	Long:  "quizpath takes quizzes from the terminal, one question at a time, adapting difficulty to how you answer.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, nil, true)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite journal file (overrides QUIZPATH_DB env var)")
	rootCmd.PersistentFlags().String("api", "", "Attempt API base URL (overrides QUIZPATH_API_URL env var)")
	rootCmd.PersistentFlags().String("env", ".env", "Optional dotenv file to load")

	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(attemptsCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(completedCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(weaknessCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mockServerCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the journal path using --db flag (highest priority),
// then QUIZPATH_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
