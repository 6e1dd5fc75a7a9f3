package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/c360studio/ontopy/config"
	"github.com/c360studio/ontopy/loader"
	"github.com/c360studio/ontopy/metric"
	"github.com/c360studio/ontopy/ontology"
	"github.com/c360studio/ontopy/storage"
)

// App wires the configuration into the objects shared by the subcommands.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metric.Metrics
	World   *ontology.World
	Loader  *loader.Loader

	// Store is nil unless loader.store is configured.
	Store *storage.Store
}

// NewApp creates the world, metrics, optional store and loader described
// by cfg.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	metrics, err := metric.New()
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		World:   ontology.NewWorld(),
	}

	opts := []loader.Option{
		loader.WithSearchPaths(cfg.Loader.SearchPaths...),
		loader.WithOnlyLocal(cfg.Loader.OnlyLocal),
		loader.WithFetchCache(cfg.Loader.FetchCacheMB << 20),
		loader.WithHTTPClient(&http.Client{Timeout: cfg.Loader.Timeout}),
		loader.WithMetrics(metrics),
		loader.WithLogger(logger),
	}
	if cfg.Loader.Catalog != "" {
		opts = append(opts, loader.WithCatalogFile(cfg.Loader.Catalog))
	}
	if cfg.Loader.CacheDir != "" {
		opts = append(opts, loader.WithCacheDir(cfg.Loader.CacheDir))
	}
	if cfg.Loader.Store != "" {
		store, err := storage.Open(cfg.Loader.Store)
		if err != nil {
			return nil, err
		}
		app.Store = store
		opts = append(opts, loader.WithStore(store))
	}

	l, err := loader.New(app.World, opts...)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("create loader: %w", err)
	}
	app.Loader = l

	logger.Debug("Application ready",
		slog.Any("search_paths", cfg.Loader.SearchPaths),
		slog.String("catalog", cfg.Loader.Catalog),
		slog.Bool("only_local", cfg.Loader.OnlyLocal))
	return app, nil
}

// Close releases the store.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

// WriteMetrics writes the metrics in the Prometheus text format to path.
func (a *App) WriteMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := a.Metrics.WriteTextfile(path); err != nil {
		return err
	}
	a.Logger.Debug("Wrote metrics", slog.String("path", path))
	return nil
}
