package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/wile/rsgauges-config/internal/api"
	"github.com/wile/rsgauges-config/internal/config"
	"github.com/wile/rsgauges-config/internal/settings"
	"github.com/wile/rsgauges-config/internal/storage"
	"github.com/wile/rsgauges-config/internal/watcher"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	store    *storage.FileStorage
	registry *settings.Registry
	watcher  *watcher.Watcher
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// New initializes the application with all dependencies from the provided
// configuration and performs the start-up load of the settings store.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	store := storage.NewFileStorage(cfg.StorePath, cfg.Namespace)
	registry, err := settings.NewModRegistry(cfg.Namespace, settings.WithLogger(logger.Named("settings")))
	if err != nil {
		return nil, fmt.Errorf("failed to declare settings: %w", err)
	}
	if err := registry.Load(store); err != nil {
		return nil, fmt.Errorf("failed to load settings from %s: %w", cfg.StorePath, err)
	}

	handler := api.NewHandler(registry, store)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	app := &App{
		store:    store,
		registry: registry,
		handler:  handler,
		router:   apiRouter,
		logger:   logger,
		server:   NewServer(cfg, apiRouter),
	}

	if cfg.WatchStore {
		app.watcher = watcher.New(cfg.StorePath, cfg.Namespace, app.onStoreChanged,
			watcher.WithDebounce(cfg.WatchDebounce),
			watcher.WithLogger(logger.Named("watcher")),
		)
	}

	return app, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start completes settings initialization, starts the store watcher and
// serves HTTP in a goroutine.
func (a *App) Start(ctx context.Context) error {
	if err := a.registry.PostInit(a.store); err != nil {
		return fmt.Errorf("post-init settings: %w", err)
	}
	a.handler.MarkSynced()

	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			return fmt.Errorf("start store watcher: %w", err)
		}
	}

	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop halts the store watcher. The HTTP server is shut down separately.
func (a *App) Stop() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Registry returns the settings registry owned by the application.
func (a *App) Registry() *settings.Registry {
	return a.registry
}

// onStoreChanged delivers a host change event to the registry.
func (a *App) onStoreChanged(ev settings.ChangeEvent) {
	applied, err := a.registry.HandleEvent(ev, a.store)
	if err != nil {
		a.logger.Error("settings re-sync failed", zap.String("namespace", ev.Namespace), zap.Error(err))
		return
	}
	if applied {
		a.handler.MarkSynced()
		a.logger.Info("settings re-synchronised after external change", zap.String("namespace", ev.Namespace))
	}
}
