package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"workboard/internal/config"
	"workboard/internal/format"
	"workboard/internal/logging"
	"workboard/internal/store"
	"workboard/internal/tui"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath string
	DB         string
	LogFile    string
	LogLevel   string
	PrettyJSON bool
	Format     string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "workboard",
		Short:        "Category board (TODO / DOING / DONE) in the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive board (memory only)
  workboard

  # Keep the board in a SQLite file between runs
  workboard --db ~/.workboard/board.db

  # Scriptable commands against the same file
  workboard --db board.db list --pretty
  workboard --db board.db add --title "Write report" --category DOING

  # Direct lookup (shortcut for: workboard show <work-id>)
  workboard --db board.db work-3f1c...
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("WORKBOARD_CONFIG", ""), "Path to config.yaml (default: ~/.workboard/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.DB, "db", envOr("WORKBOARD_DB", ""), "SQLite mirror file (empty: keep the board in memory)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", "", "Write JSON logs to this file")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("WORKBOARD_FORMAT", "json"), "Output format (json|yaml)")

	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newMoveCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// session is everything a command needs: effective config, logger, a store
// seeded from the mirror, and the mirror itself when one is configured.
type session struct {
	cfg    *config.Config
	log    *logrus.Logger
	store  *store.Store
	mirror *store.Mirror

	logCloser io.Closer
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(app *App) (*config.Config, error) {
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(app.DB); v != "" {
		cfg.DB = config.ExpandHome(v)
	}
	if v := strings.TrimSpace(app.LogFile); v != "" {
		cfg.Log.File = config.ExpandHome(v)
	}
	if v := strings.TrimSpace(app.LogLevel); v != "" {
		cfg.Log.Level = v
	}
	return cfg, nil
}

func openSession(ctx context.Context, app *App) (*session, error) {
	cfg, err := loadConfig(app)
	if err != nil {
		return nil, err
	}
	log, closer, err := logging.New(logging.Options{File: cfg.Log.File, Level: cfg.Log.Level})
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, log: log, logCloser: closer}

	st, err := store.New(cfg.CategoryList(), store.WithLogger(log))
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.store = st

	if cfg.DB == "" {
		return s, nil
	}
	lists, err := store.LoadMirror(ctx, cfg.DB)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("load %s: %w", cfg.DB, err)
	}
	skipped, err := store.Seed(st, lists)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	if skipped > 0 {
		log.WithFields(logrus.Fields{"db": cfg.DB, "skipped": skipped}).Warn("mirrored works in unconfigured categories were not loaded")
	}
	m, err := store.OpenMirror(ctx, cfg.DB, log)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.mirror = m
	if err := m.Attach(st); err != nil {
		_ = s.Close()
		return nil, err
	}
	log.WithFields(logrus.Fields{"db": cfg.DB, "works": st.Len()}).Info("board loaded")
	return s, nil
}

// Close detaches the mirror and reports its last write failure, if any.
func (s *session) Close() error {
	var err error
	if s.mirror != nil {
		err = s.mirror.Err()
		if cerr := s.mirror.Close(); err == nil {
			err = cerr
		}
	}
	if s.logCloser != nil {
		_ = s.logCloser.Close()
	}
	return err
}

func runTUI(cmd *cobra.Command, app *App) error {
	s, err := openSession(cmd.Context(), app)
	if err != nil {
		return err
	}
	runErr := tui.Run(tui.Options{
		Store:      s.store,
		Logger:     s.log,
		Theme:      s.cfg.TUI.Theme,
		DateLayout: s.cfg.TUI.DateLayout,
	})
	if err := s.Close(); runErr == nil {
		runErr = err
	}
	return runErr
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}
