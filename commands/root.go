// Package commands provides the ontopy command line interface.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/c360studio/ontopy/config"
)

// globalFlags are the flags shared by every subcommand.
type globalFlags struct {
	configPath  string
	logLevel    string
	metricsFile string
	searchPaths []string
	catalog     string
	cacheDir    string
	store       string
	onlyLocal   bool
}

// NewRootCommand returns the ontopy command tree.
func NewRootCommand(version, buildTime string) *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "ontopy",
		Short: "Load ontologies and build them from spreadsheets",
		Long: `ontopy loads OWL ontologies with their imports, resolving identifiers
through XML catalogs, local search paths and the web, and builds new
ontologies from spreadsheets of concepts.

Configuration is read from ~/.config/ontopy/config.yaml, then from the
nearest ontopy.yaml, then from ONTOPY_PATH and finally from flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Config file merged over the user and project config")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&g.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	pf.StringSliceVarP(&g.searchPaths, "search-path", "I", nil, "Directory or glob searched for local ontologies (repeatable)")
	pf.StringVar(&g.catalog, "catalog", "", "XML catalog consulted for every load")
	pf.StringVar(&g.cacheDir, "cache-dir", "", "Directory keeping fetched ontologies for offline use")
	pf.StringVar(&g.store, "store", "", "bbolt file holding loaded ontologies")
	pf.BoolVar(&g.onlyLocal, "only-local", false, "Never fetch ontologies from the web")

	cmd.AddCommand(
		newLoadCommand(g),
		newExcelCommand(g),
		newCatalogCommand(g),
		newStoreCommand(g),
		newConfigCommand(g),
		newVersionCommand(version, buildTime),
	)
	return cmd
}

// loadConfig layers the config files, the --config file and the flags.
func (g *globalFlags) loadConfig(logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if g.configPath != "" {
		file, err := config.ReadFile(g.configPath)
		if err != nil {
			return nil, err
		}
		file.ResolvePaths(filepath.Dir(g.configPath))
		cfg.Merge(file)
	}

	cfg.Merge(&config.Config{
		Loader: config.LoaderConfig{
			SearchPaths: g.searchPaths,
			Catalog:     g.catalog,
			CacheDir:    g.cacheDir,
			Store:       g.store,
			OnlyLocal:   g.onlyLocal,
		},
		Log: config.LogConfig{Level: g.logLevel},
	})
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the stderr text logger.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// bootLevel is the level used while the configuration loads: the
// --log-level flag, or warn.
func bootLevel(flag string) (slog.Level, error) {
	level := slog.LevelWarn
	if flag == "" {
		return level, nil
	}
	if err := level.UnmarshalText([]byte(flag)); err != nil {
		return level, fmt.Errorf("invalid --log-level: %w", err)
	}
	return level, nil
}

// run loads the configuration, creates the App and calls fn with it. The
// App is closed and metrics are written whatever fn returns.
func (g *globalFlags) run(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) (err error) {
	boot, err := bootLevel(g.logLevel)
	if err != nil {
		return err
	}
	cfg, err := g.loadConfig(newLogger(cmd.ErrOrStderr(), boot))
	if err != nil {
		return err
	}

	level, _ := cfg.Log.SlogLevel()
	logger := newLogger(cmd.ErrOrStderr(), level)

	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if merr := app.WriteMetrics(g.metricsFile); merr != nil && err == nil {
			err = merr
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, app)
}
