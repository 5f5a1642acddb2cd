package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/quizpath/internal/app"
	"github.com/abhisek/quizpath/internal/screen"
	"github.com/abhisek/quizpath/internal/screens"
)

// runApp builds the client stack and launches the TUI. open, when non-nil,
// builds the screen shown over the dashboard.
func runApp(cmd *cobra.Command, open func(*screens.Deps) screen.Screen, splash bool) error {
	e, err := newEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	opts := app.Options{Deps: e.deps(), Splash: splash}
	if open != nil {
		opts.Open = open(opts.Deps)
	}
	e.logger.Info("starting TUI", "api", e.cfg.APIURL)
	return app.Run(opts)
}
