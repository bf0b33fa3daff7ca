package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	transcript "github.com/iKozay/TrackMyDegree-sub000"
)

// app holds the global flags and the engine shared by subcommands.
type app struct {
	configPath string
	dbPath     string
	verbose    bool
	noStore    bool

	cfg    transcript.Config
	logger *slog.Logger
	engine transcript.Engine
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "transcript",
		Short: "Parse student transcript PDFs into structured records",
		Long: `transcript reads a university transcript (PDF, plain text, or a token
dump) and reconstructs its semesters, courses, grades, exemptions,
transfer credits, and program information.

Parsed results are kept in a local SQLite database unless --no-store
is given.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.engine != nil {
				return a.engine.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML or JSON config file")
	flags.StringVar(&a.dbPath, "db", "", "database path (overrides config)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&a.noStore, "no-store", false, "parse without reading or writing the database")

	root.AddCommand(
		parseCmd(a),
		tokensCmd(a),
		listCmd(a),
		showCmd(a),
		exportCmd(a),
		deleteCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	a.cfg = transcript.DefaultConfig()
	if a.configPath != "" {
		cfg, err := transcript.LoadConfig(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.dbPath != "" {
		a.cfg.DBPath = a.dbPath
	}
	if a.noStore {
		a.cfg.DisableStore = true
	}
	return nil
}

// open creates the engine on first use so that commands which never touch
// it do not create a database.
func (a *app) open() (transcript.Engine, error) {
	if a.engine != nil {
		return a.engine, nil
	}
	e, err := transcript.NewWithLogger(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.engine = e
	return e, nil
}
