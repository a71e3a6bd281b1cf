// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/seedvault/seedvault/internal/api"
	"github.com/seedvault/seedvault/internal/config"
	"github.com/seedvault/seedvault/internal/database"
	"github.com/seedvault/seedvault/internal/license"
	"github.com/seedvault/seedvault/internal/metrics"
	"github.com/seedvault/seedvault/internal/models"
	"github.com/seedvault/seedvault/internal/services"
)

var Version = "dev"

func main() {
	var rootCmd = &cobra.Command{
		Use:   "seedvault",
		Short: "A self-hosted torrent vault",
		Long: `seedvault - A self-hosted torrent manager, Pro edition.
Activation binds a license to this machine; run 'seedvault activate' to begin.`,
	}

	// Initialize logger
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.Version = Version

	rootCmd.AddCommand(RunServeCommand())
	rootCmd.AddCommand(RunVersionCommand(Version))
	rootCmd.AddCommand(RunGenerateConfigCommand())
	rootCmd.AddCommand(RunActivateCommand())
	rootCmd.AddCommand(RunStatusCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func RunServeCommand() *cobra.Command {
	var (
		configDir string
		dataDir   string
		logPath   string
	)

	var command = &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
	}

	command.Flags().StringVar(&configDir, "config-dir", "", "config directory path (default is OS-specific: ~/.config/seedvault/ or %APPDATA%\\seedvault\\). For backward compatibility, can also be a direct path to a .toml file")
	command.Flags().StringVar(&dataDir, "data-dir", "", "data directory for database and other files (default is next to config file)")
	command.Flags().StringVar(&logPath, "log-path", "", "log file path (default is stdout)")

	command.Run = func(cmd *cobra.Command, args []string) {
		app := NewApplication(Version, configDir, dataDir, logPath)
		app.runServer()
	}

	return command
}

func RunVersionCommand(version string) *cobra.Command {
	var command = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of seedvault",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	return command
}

func RunGenerateConfigCommand() *cobra.Command {
	var configDir string

	command := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate a default configuration file",
		Long: `Generate a default configuration file without starting the server.

If no --config-dir is specified, uses the OS-specific default location:
- Linux/macOS: ~/.config/seedvault/config.toml
- Windows: %APPDATA%\seedvault\config.toml

You can specify either a directory path or a direct file path:
- Directory: seedvault generate-config --config-dir /path/to/config/
- File: seedvault generate-config --config-dir /path/to/myconfig.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var configPath string
			if configDir != "" {
				if strings.HasSuffix(strings.ToLower(configDir), ".toml") {
					configPath = configDir
				} else if info, err := os.Stat(configDir); err == nil && !info.IsDir() {
					configPath = configDir
				} else {
					configPath = filepath.Join(configDir, "config.toml")
				}
			} else {
				defaultDir := config.GetDefaultConfigDir()
				configPath = filepath.Join(defaultDir, "config.toml")
			}

			if _, err := os.Stat(configPath); err == nil {
				cmd.Printf("Configuration file already exists at: %s\n", configPath)
				cmd.Println("Skipping generation to avoid overwriting existing configuration.")
				return nil
			}

			if err := config.WriteDefaultConfig(configPath); err != nil {
				return fmt.Errorf("failed to create configuration file: %w", err)
			}

			cmd.Printf("Configuration file created successfully at: %s\n", configPath)
			return nil
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "",
		"config directory or file path (defaults to OS-specific location)")

	return command
}

// licenseKit bundles the license machinery built from one config: a shared
// store and fingerprinter with the validator and activator on top.
type licenseKit struct {
	fp        license.Fingerprinter
	store     *license.Store
	validator *license.Validator
	activator *license.Activator
}

func buildLicenseKit(cfg *config.AppConfig) (*licenseKit, error) {
	anchorPath, err := cfg.GetAnchorPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve anchor path: %w", err)
	}

	fp := license.NetFingerprinter{}
	store := license.NewStore(
		cfg.GetLicenseBlobPath(),
		anchorPath,
		license.CodecByName(cfg.Config.LicenseCodec),
		fp,
	)

	return &licenseKit{
		fp:        fp,
		store:     store,
		validator: license.NewValidator(store, fp, nil),
		activator: license.NewActivator(store, fp, nil),
	}, nil
}

func RunActivateCommand() *cobra.Command {
	var configDir, email string

	command := &cobra.Command{
		Use:   "activate",
		Short: "Activate a license on this machine",
		Long: `Activate a license bound to this machine's hardware.

Activation writes an encrypted license file into the config directory and an
anchor token into the deployment tree. Both must stay in place for the
license to validate.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New(configDir)
			if err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			kit, err := buildLicenseKit(cfg)
			if err != nil {
				return err
			}

			if email == "" {
				email, err = readLine("Enter license email: ")
				if err != nil {
					return err
				}
			}
			if strings.TrimSpace(email) == "" {
				return fmt.Errorf("email cannot be empty")
			}

			// Activation goes through the service so the attempt lands
			// in the audit log either way.
			db, err := database.New(cfg.GetDatabasePath())
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer db.Close()

			svc := services.NewLicenseService(kit.validator, kit.activator, models.NewActivationLogStore(db.Conn()))

			if !svc.Activate(cmd.Context(), email, kit.fp.HardwareID()) {
				return fmt.Errorf("activation failed: could not write license files (check hardware and permissions)")
			}

			rec := kit.validator.Current()
			cmd.Printf("License activated for %s\n", rec.Email)
			cmd.Printf("  expires: %s\n", rec.ExpiresAt.Format(time.RFC3339))
			cmd.Printf("  license: %s\n", kit.store.BlobPath())
			cmd.Printf("  anchor:  %s\n", kit.store.AnchorPath())
			return nil
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "",
		"config directory or file path (defaults to OS-specific location)")
	command.Flags().StringVar(&email, "email", "",
		"license email (will prompt if not provided)")

	return command
}

func RunStatusCommand() *cobra.Command {
	var configDir string

	command := &cobra.Command{
		Use:   "status",
		Short: "Show the current license status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New(configDir)
			if err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			kit, err := buildLicenseKit(cfg)
			if err != nil {
				return err
			}

			if !kit.validator.Valid() {
				cmd.Println("License: INVALID")
				cmd.Println("Run 'seedvault activate' to activate this machine.")
				return nil
			}

			rec := kit.validator.Current()
			cmd.Println("License: VALID")
			cmd.Printf("  email:   %s\n", rec.Email)
			cmd.Printf("  issued:  %s\n", rec.IssuedAt.Format(time.RFC3339))
			cmd.Printf("  expires: %s\n", rec.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "",
		"config directory or file path (defaults to OS-specific location)")

	return command
}

type Application struct {
	version   string
	configDir string
	dataDir   string
	logPath   string
}

func NewApplication(version, configDir, dataDir, logPath string) *Application {
	return &Application{
		version:   version,
		configDir: configDir,
		dataDir:   dataDir,
		logPath:   logPath,
	}
}

func (app *Application) runServer() {
	log.Info().Str("version", app.version).Msg("Starting seedvault")

	// Initialize configuration
	cfg, err := config.New(app.configDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize configuration")
	}

	// Override with CLI flags if provided
	if app.dataDir != "" {
		os.Setenv("SEEDVAULT__DATA_DIR", app.dataDir)
		cfg.SetDataDir(app.dataDir)
	}
	if app.logPath != "" {
		os.Setenv("SEEDVAULT__LOG_PATH", app.logPath)
		cfg.Config.LogPath = app.logPath
	}

	cfg.ApplyLogConfig()

	// Initialize database
	db, err := database.New(cfg.GetDatabasePath())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Initialize license machinery
	kit, err := buildLicenseKit(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize license store")
	}

	auditLog := models.NewActivationLogStore(db.Conn())
	licenseService := services.NewLicenseService(kit.validator, kit.activator, auditLog)

	var metricsManager *metrics.Manager
	if cfg.Config.MetricsEnabled {
		metricsManager = metrics.NewManager(licenseService, auditLog)
		log.Info().Msg("Prometheus metrics enabled at /metrics endpoint")
	}

	// Create router dependencies
	deps := &api.Dependencies{
		Config:         cfg,
		DB:             db.Conn(),
		LicenseService: licenseService,
		MetricsManager: metricsManager,
	}

	// Initialize router
	router := api.NewRouter(deps)

	// If baseURL is configured, mount the entire app under that path
	handler := mountWithBaseURL(cfg.Config.BaseURL, router)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Config.Host, cfg.Config.Port),
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  180 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("address", srv.Addr).Msg("Starting HTTP server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// The paywall gate runs after the server is up. It returns only once the
	// license validates; activation success or a chosen exit go through the
	// process controller instead. Activations are routed through the service
	// so every attempt lands in the audit log.
	gate := license.NewGate(kit.validator, func(email string) bool {
		return licenseService.Activate(context.Background(), email, kit.fp.HardwareID())
	}, newTerminalPrompter(), osProcessController{})
	gate.Run()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// mountWithBaseURL serves the app under a subfolder for reverse proxy
// setups. An empty or root base URL returns the router unchanged.
func mountWithBaseURL(baseURL string, router http.Handler) http.Handler {
	if baseURL == "" || baseURL == "/" {
		return router
	}

	parentRouter := chi.NewRouter()
	mountPath := strings.TrimSuffix(baseURL, "/")
	parentRouter.Mount(mountPath, router)

	// Redirect root to base URL
	parentRouter.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, baseURL, http.StatusMovedPermanently)
	})

	return parentRouter
}
