// Package main provides the entry point for the Picta image service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobrunner/picta/internal/app"
	"github.com/jobrunner/picta/internal/config"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var (
	cfgFile string
	v       = viper.New()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "picta",
	Short: "Picta - PNG upload and static map service",
	Long: `Picta stores PNG uploads together with an HTML page that shows them
at a bounded size, and snapshots static maps into object storage.

Features:
  - PNG validation by content, independent of the Content-Type header
  - HTML page template with hot-reload
  - Static map snapshots centered on a pseudo-location
  - Multiple storage backends (AWS S3, Azure Blob, HTTP PUT, local)
  - TLS with automatic certificate management
  - Prometheus metrics`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("Picta %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Build Date: %s\n", buildDate)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")

	// Server flags
	rootCmd.Flags().String("host", "0.0.0.0", "server host")
	rootCmd.Flags().Int("port", 8080, "server port")
	rootCmd.Flags().Bool("tls", false, "enable TLS")
	rootCmd.Flags().StringSlice("tls-domains", nil, "TLS domains")
	rootCmd.Flags().String("tls-email", "", "TLS email for Let's Encrypt")
	rootCmd.Flags().StringSlice("cors", nil, "allowed CORS origins (e.g., https://example.com,*.sub.domain.tld)")

	// Storage flags
	rootCmd.Flags().String("storage-type", "local", "storage type (s3, azure, http, local)")
	rootCmd.Flags().String("storage-path", "./data", "local storage path")
	rootCmd.Flags().String("bucket", "", "S3 bucket name")

	// Image and map flags
	rootCmd.Flags().String("template", "", "HTML page template (default: embedded)")
	rootCmd.Flags().Int("max-dimension", 100, "default max_scale_dimension for /png")
	rootCmd.Flags().String("map-timezone", "", "IANA timezone for the map longitude (default: local)")

	// Bind flags to viper
	_ = v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("server.host", rootCmd.Flags().Lookup("host"))
	_ = v.BindPFlag("server.port", rootCmd.Flags().Lookup("port"))
	_ = v.BindPFlag("server.cors.allowed_origins", rootCmd.Flags().Lookup("cors"))
	_ = v.BindPFlag("tls.enabled", rootCmd.Flags().Lookup("tls"))
	_ = v.BindPFlag("tls.domains", rootCmd.Flags().Lookup("tls-domains"))
	_ = v.BindPFlag("tls.email", rootCmd.Flags().Lookup("tls-email"))
	_ = v.BindPFlag("storage.type", rootCmd.Flags().Lookup("storage-type"))
	_ = v.BindPFlag("storage.local.path", rootCmd.Flags().Lookup("storage-path"))
	_ = v.BindPFlag("storage.s3.bucket", rootCmd.Flags().Lookup("bucket"))
	_ = v.BindPFlag("template.path", rootCmd.Flags().Lookup("template"))
	_ = v.BindPFlag("images.default_max_dimension", rootCmd.Flags().Lookup("max-dimension"))
	_ = v.BindPFlag("map.timezone", rootCmd.Flags().Lookup("map-timezone"))

	rootCmd.AddCommand(versionCmd)
}

func runServer(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := app.NewLogger(cfg.Logging, os.Stdout)

	logger.Info("starting Picta",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage_type", cfg.Storage.Type,
	)

	// Cancelled on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize application
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	// Start server in background
	serverErr := make(chan error, 1)
	go func() {
		if err := application.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or server error
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case runErr = <-serverErr:
		logger.Error("server error", "error", runErr)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return runErr
}
