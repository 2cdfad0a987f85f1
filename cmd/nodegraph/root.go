package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/nodegraph/pkg/nodegraph"
	"github.com/randalmurphal/nodegraph/pkg/nodegraph/config"
	"github.com/randalmurphal/nodegraph/pkg/nodegraph/observability"
	"github.com/randalmurphal/nodegraph/pkg/nodegraph/snapshot"
)

// defaultSQLiteFile is used when the sqlite backend is pointed at a
// directory.
const defaultSQLiteFile = "nodegraph.db"

// rootOptions holds the global flag values.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	store      string
	storePath  string
	autosave   bool
}

// app is the state shared by every subcommand once flags and config are
// resolved.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	opts     rootOptions
	settings config.Settings
	logger   *slog.Logger
	shutdown func(context.Context) error
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:   "nodegraph",
		Short: "A line-oriented editor for typed node graphs",
		Long: `nodegraph builds small graphs of typed computation nodes and
evaluates any node's value on demand.

Nodes come from templates ("New number", "Repeat string", "New text").
Connections are type-checked and may never form a cycle. Graphs are saved
as snapshots in a directory, a SQLite database or memory.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.teardown()
		},
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.opts.configPath, "config", "c", "", "Config file (.yaml, .yml or .json)")
	flags.StringVar(&a.opts.logLevel, "log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	flags.StringVar(&a.opts.logFormat, "log-format", config.DefaultLogFormat, "Log format (text, json)")
	flags.StringVar(&a.opts.store, "store", config.DefaultStoreBackend, "Snapshot store (file, sqlite, memory)")
	flags.StringVar(&a.opts.storePath, "store-path", config.DefaultStorePath, "Snapshot directory, or database file for sqlite")
	flags.BoolVar(&a.opts.autosave, "autosave", false, "Save after every change to "+config.DefaultAutoPersistName)

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		newShellCmd(a),
		newTemplatesCmd(a),
		newEvalCmd(a),
	)
	return rootCmd
}

// setup resolves settings (defaults, then config file, then flags) and
// builds the logger and telemetry.
func (a *app) setup(cmd *cobra.Command) error {
	settings := config.DefaultSettings()
	if a.opts.configPath != "" {
		loaded, err := config.Load(a.opts.configPath)
		if err != nil {
			return err
		}
		settings = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		settings.LogLevel = a.opts.logLevel
	}
	if flags.Changed("log-format") {
		settings.LogFormat = a.opts.logFormat
	}
	if flags.Changed("store") {
		settings.StoreBackend = a.opts.store
	}
	if flags.Changed("store-path") {
		settings.StorePath = a.opts.storePath
	}
	if flags.Changed("autosave") {
		settings.AutoPersist = a.opts.autosave
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	a.settings = settings

	logger, err := observability.NewLogger(a.errOut, settings.LogLevel, settings.LogFormat)
	if err != nil {
		return err
	}
	a.logger = logger

	shutdown, err := setupTelemetry(logger, settings.Metrics, settings.Tracing)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	a.shutdown = shutdown
	return nil
}

func (a *app) teardown() error {
	if a.shutdown == nil {
		return nil
	}
	return a.shutdown(context.Background())
}

// openStore opens the configured snapshot store.
func (a *app) openStore() (snapshot.Store, error) {
	path := a.settings.StorePath
	if a.settings.StoreBackend == snapshot.BackendSQLite {
		if info, err := os.Stat(path); path == "" || (err == nil && info.IsDir()) {
			path = filepath.Join(path, defaultSQLiteFile)
		}
	}
	return snapshot.Open(a.settings.StoreBackend, path)
}

// newEditor builds an editor over the configured store.
func (a *app) newEditor() (*nodegraph.Editor, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", a.settings.StoreBackend, err)
	}
	return nodegraph.NewEditor(
		nodegraph.WithStore(store),
		nodegraph.WithLogger(a.logger),
		nodegraph.WithMetrics(a.settings.Metrics),
		nodegraph.WithTracing(a.settings.Tracing),
		nodegraph.WithAutoPersist(a.settings.AutoPersist),
		nodegraph.WithAutoPersistName(a.settings.AutoPersistName),
	), nil
}
