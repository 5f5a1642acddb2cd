package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizpath/internal/api"
	"github.com/abhisek/quizpath/internal/attempt"
	"github.com/abhisek/quizpath/internal/config"
	"github.com/abhisek/quizpath/internal/events"
	"github.com/abhisek/quizpath/internal/logging"
	"github.com/abhisek/quizpath/internal/screens"
	"github.com/abhisek/quizpath/internal/store"
)

// env is everything a command needs to talk to the attempt API. Close
// releases it in reverse order of acquisition.
type env struct {
	cfg    config.Config
	logger logging.Logger
	client *api.Client
	store  *store.Store
	bus    *events.Bus

	closers []func() error
}

// loadConfig reads the dotenv file and environment, then applies flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env")
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if u, _ := cmd.Flags().GetString("api"); u != "" {
		cfg.APIURL = u
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newEnv builds the client stack. With journal set it also opens the
// SQLite journal and routes attempt activity into it.
func newEnv(cmd *cobra.Command, journal bool) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logPath := cfg.LogFile
	if logPath == "" {
		logPath = logging.DefaultPath()
	}
	logger, logCloser, err := logging.New(logging.Options{
		Path:   logPath,
		Format: cfg.LogFormat,
		Level:  cfg.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	e := &env{cfg: cfg, logger: logger}
	e.closers = append(e.closers, logCloser.Close)

	e.client = api.New(api.Options{
		BaseURL: cfg.APIURL,
		Token:   cfg.Token,
		Timeout: cfg.HTTPTimeout,
		Retry:   cfg.Retry(),
		Logger:  logger.With("component", "api"),
	})

	if cfg.Token == "" && cfg.Username != "" {
		if _, err := e.client.Login(cmd.Context(), cfg.Username, cfg.Password); err != nil {
			e.Close()
			return nil, fmt.Errorf("login: %w", err)
		}
		logger.Info("logged in", "username", cfg.Username)
	}

	if journal {
		if err := e.openJournal(cmd); err != nil {
			e.Close()
			return nil, err
		}
	}
	return e, nil
}

func (e *env) openJournal(cmd *cobra.Command) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	e.store = st
	e.closers = append(e.closers, st.Close)

	runID := uuid.NewString()
	e.bus = events.NewBus(e.logger.With("component", "events"))
	e.closers = append(e.closers, e.bus.Close)

	ctx, cancel := context.WithCancel(context.Background())
	e.closers = append(e.closers, func() error { cancel(); return nil })
	if err := e.bus.Subscribe(ctx, events.JournalTo(st.EventRepo(), runID)); err != nil {
		return err
	}
	e.logger.Debug("journal open", "path", dbPath, "run_id", runID)
	return nil
}

// deps wires the screens to the API, the coordinator and the journal.
func (e *env) deps() *screens.Deps {
	var pub events.Publisher = events.Discard{}
	if e.bus != nil {
		pub = e.bus
	}
	d := &screens.Deps{
		API:          e.client,
		Coordinator:  attempt.NewCoordinator(e.client, pub, e.logger.With("component", "coordinator")),
		Session:      e.cfg.SessionOptions(),
		TickInterval: e.cfg.TickInterval,
		PollInterval: e.cfg.PollInterval,
		Logger:       e.logger,
	}
	if e.store != nil {
		d.Journal = e.store.EventRepo()
	}
	return d.WithDefaults()
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil && e.logger != nil {
			e.logger.LogError(err, "close")
		}
	}
	e.closers = nil
}
