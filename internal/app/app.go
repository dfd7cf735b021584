// Package app provides application initialization and wiring.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	httpAdapter "github.com/jobrunner/picta/internal/adapters/http"
	"github.com/jobrunner/picta/internal/adapters/imaging"
	"github.com/jobrunner/picta/internal/adapters/mapprovider"
	"github.com/jobrunner/picta/internal/adapters/metrics"
	"github.com/jobrunner/picta/internal/adapters/storage"
	"github.com/jobrunner/picta/internal/adapters/template"
	tlsAdapter "github.com/jobrunner/picta/internal/adapters/tls"
	"github.com/jobrunner/picta/internal/adapters/watcher"
	"github.com/jobrunner/picta/internal/application"
	"github.com/jobrunner/picta/internal/config"
	"github.com/jobrunner/picta/internal/ports/output"
)

// App holds all application components.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Store         output.ObjectStore
	Renderer      *template.Renderer
	Provider      *mapprovider.StaticProvider
	UploadService *application.UploadService
	MapService    *application.MapService
	HealthService *application.HealthService
	HTTPServer    *httpAdapter.Server
	TLSServer     *tlsAdapter.Server
	Watcher       *watcher.Watcher
	Metrics       *metrics.Collector
}

// New creates and initializes a new application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize metrics
	var metricsCollector output.MetricsCollector = &output.NoOpMetrics{}
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector(cfg.Metrics.Namespace)
		metricsCollector = app.Metrics
	}

	// Initialize storage adapter
	store, err := initStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	app.Store = store

	// Initialize page renderer
	app.Renderer = template.NewRenderer(template.Config{
		Path:   cfg.Template.Path,
		Escape: cfg.Template.Escape,
	}, logger)

	// Initialize map provider
	mapRate := 0.0
	if cfg.Map.RateLimit.Enabled {
		mapRate = cfg.Map.RateLimit.Rate
	}
	app.Provider = mapprovider.NewStaticProvider(mapprovider.Config{
		URLTemplate: cfg.Map.URLTemplate,
		Width:       cfg.Map.Width,
		Height:      cfg.Map.Height,
		Timeout:     cfg.Map.Timeout,
		UserAgent:   cfg.Map.UserAgent,
		MaxBytes:    cfg.Map.MaxBytes,
		Rate:        mapRate,
		Burst:       cfg.Map.RateLimit.Burst,
	})

	location, err := cfg.Map.Location()
	if err != nil {
		return nil, fmt.Errorf("loading map timezone: %w", err)
	}

	// Initialize services
	app.UploadService = application.NewUploadService(
		app.Store,
		imaging.NewInspector(),
		app.Renderer,
		metricsCollector,
		logger,
	)
	app.MapService = application.NewMapService(
		app.Provider,
		app.Store,
		metricsCollector,
		logger,
		application.MapServiceConfig{
			Zoom:     cfg.Map.Zoom,
			Location: location,
		},
	)

	// Initialize health service
	app.HealthService = application.NewHealthService(cfg.Storage.Type)
	app.HealthService.AddCheck("template", func(context.Context) error {
		return app.Renderer.Check()
	})
	app.HealthService.AddCheck("storage", func(context.Context) error {
		if cfg.Storage.Type == "local" {
			return checkDirectory(cfg.Storage.Local.Path)
		}
		if app.Store.Name() == "" {
			return fmt.Errorf("%s store is not configured", cfg.Storage.Type)
		}
		return nil
	})

	// Initialize HTTP server
	opts := httpAdapter.Options{
		Uploads:             app.UploadService,
		Maps:                app.MapService,
		Health:              app.HealthService,
		MetricsPath:         cfg.Metrics.Path,
		DefaultMaxDimension: cfg.Images.DefaultMaxDimension,
		MaxUploadBytes:      cfg.Images.MaxUploadBytes,
	}
	if app.Metrics != nil {
		opts.Metrics = app.Metrics
	}
	if cfg.Storage.Type == "local" && cfg.Storage.Local.Serve {
		opts.FilesDir = cfg.Storage.Local.Path
	}
	app.HTTPServer = httpAdapter.NewServer(cfg.Server, opts, logger)

	// Initialize TLS server if enabled
	if cfg.TLS.Enabled {
		tlsServer, err := tlsAdapter.NewServer(
			tlsAdapter.Config{
				Domains:      cfg.TLS.Domains,
				Email:        cfg.TLS.Email,
				CacheDir:     cfg.TLS.CacheDir,
				Staging:      cfg.TLS.Staging,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				DNS: tlsAdapter.DNSConfig{
					SubscriptionID:    cfg.TLS.DNS.SubscriptionID,
					ResourceGroupName: cfg.TLS.DNS.ResourceGroupName,
					ClientID:          cfg.TLS.DNS.ClientID,
				},
			},
			app.HTTPServer.Handler(),
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("initializing TLS: %w", err)
		}
		app.TLSServer = tlsServer
	}

	// Initialize template watcher for hot-reload
	if cfg.Template.Watch && cfg.Template.Path != "" {
		w, err := watcher.New(
			watcher.Config{
				Files: []string{cfg.Template.Path},
			},
			app.handleTemplateEvent,
			logger,
		)
		if err != nil {
			logger.Warn("failed to initialize template watcher", "error", err)
		} else {
			app.Watcher = w
		}
	}

	return app, nil
}

// Handler returns the HTTP handler serving all routes.
func (a *App) Handler() http.Handler {
	return a.HTTPServer.Handler()
}

// Start starts all application components and blocks until the server stops.
func (a *App) Start(ctx context.Context) error {
	// Load the template eagerly so a broken file shows up at startup.
	if err := a.Renderer.Check(); err != nil {
		a.Logger.Warn("page template not loadable", "path", a.Renderer.Path(), "error", err)
	}

	// Start template watcher
	if a.Watcher != nil {
		if err := a.Watcher.Start(ctx); err != nil {
			a.Logger.Warn("failed to start template watcher", "error", err)
		}
	}

	// Start server
	if a.TLSServer != nil {
		go func() {
			if err := a.TLSServer.ManageCertificates(ctx); err != nil {
				a.Logger.Error("certificate management failed", "error", err)
			}
		}()
		return a.TLSServer.ListenAndServe(a.Config.Server.Address())
	}
	return a.HTTPServer.Start()
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	// Stop watcher
	if a.Watcher != nil {
		_ = a.Watcher.Stop()
	}

	var errs []error

	if a.TLSServer != nil {
		if err := a.TLSServer.Shutdown(ctx); err != nil {
			a.Logger.Error("TLS server shutdown error", "error", err)
			errs = append(errs, err)
		}
	}

	// Shutdown HTTP server
	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Logger.Error("HTTP server shutdown error", "error", err)
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// handleTemplateEvent reloads the page template after it changed on disk.
// A deleted template keeps the last good version until it reappears.
func (a *App) handleTemplateEvent(_ context.Context, event watcher.Event) error {
	a.Logger.Info("template file event", "path", event.Path, "operation", event.Operation.String())

	if event.Operation == watcher.OpDelete {
		return nil
	}
	return a.Renderer.Reload()
}

// initStorage initializes the configured object store.
func initStorage(ctx context.Context, cfg config.StorageConfig) (output.ObjectStore, error) {
	switch output.StorageType(cfg.Type) {
	case output.StorageTypeLocal:
		baseURL := cfg.Local.BaseURL
		if cfg.PublicBaseURL != "" {
			baseURL = cfg.PublicBaseURL
		}
		return storage.NewLocalStore(storage.LocalConfig{
			Path:    cfg.Local.Path,
			BaseURL: baseURL,
			Prefix:  cfg.Prefix,
		}), nil

	case output.StorageTypeS3:
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.PublicBaseURL,
			DisableACL:      cfg.S3.DisableACL,
		})

	case output.StorageTypeAzure:
		return storage.NewAzureStore(storage.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
			Prefix:           cfg.Prefix,
			PublicBaseURL:    cfg.PublicBaseURL,
		})

	case output.StorageTypeHTTP:
		return storage.NewHTTPStore(storage.HTTPConfig{
			BaseURL:       cfg.HTTP.BaseURL,
			PublicBaseURL: cfg.PublicBaseURL,
			Prefix:        cfg.Prefix,
			Timeout:       cfg.HTTP.Timeout,
			Username:      cfg.HTTP.Username,
			Password:      cfg.HTTP.Password,
		}), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// checkDirectory creates dir if needed and reports whether it is a directory.
func checkDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// NewLogger creates the process logger from the logging configuration.
func NewLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}
