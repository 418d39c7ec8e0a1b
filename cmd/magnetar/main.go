// Copyright (c) 2025, the magnetar contributors.
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

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kinolotto/magnetar/internal/api"
	"github.com/kinolotto/magnetar/internal/buildinfo"
	"github.com/kinolotto/magnetar/internal/config"
	"github.com/kinolotto/magnetar/internal/database"
	"github.com/kinolotto/magnetar/internal/metrics"
	"github.com/kinolotto/magnetar/internal/models"
	"github.com/kinolotto/magnetar/internal/services/dht"
	"github.com/kinolotto/magnetar/internal/services/magnet"
	"github.com/kinolotto/magnetar/internal/services/search"
)

func main() {
	config.InitDefaultLogger(buildinfo.Version)

	var rootCmd = &cobra.Command{
		Use:   "magnetar",
		Short: "Background magnet link resolution service",
		Long: `magnetar - a self-hosted service that resolves movie titles to the
best available magnet link using tracker aggregators and DHT fallback.`,
	}

	rootCmd.Version = buildinfo.Version

	rootCmd.AddCommand(RunServeCommand())
	rootCmd.AddCommand(RunVersionCommand(buildinfo.Version))
	rootCmd.AddCommand(RunGenerateConfigCommand())

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

	command.Flags().StringVar(&configDir, "config-dir", "", "config directory path (default is OS-specific: ~/.config/magnetar/ or %APPDATA%\\magnetar\\). Can also be a direct path to a .toml file")
	command.Flags().StringVar(&dataDir, "data-dir", "", "data directory for the database (default is next to config file)")
	command.Flags().StringVar(&logPath, "log-path", "", "log file path (default is stdout)")

	command.Run = func(cmd *cobra.Command, args []string) {
		app := NewApplication(configDir, dataDir, logPath)
		app.runServer()
	}

	return command
}

func RunVersionCommand(version string) *cobra.Command {
	var command = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of magnetar",
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
- Linux/macOS: ~/.config/magnetar/config.toml
- Windows: %APPDATA%\magnetar\config.toml`,
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
				configPath = filepath.Join(config.GetDefaultConfigDir(), "config.toml")
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

type Application struct {
	configDir string
	dataDir   string
	logPath   string
}

func NewApplication(configDir, dataDir, logPath string) *Application {
	return &Application{
		configDir: configDir,
		dataDir:   dataDir,
		logPath:   logPath,
	}
}

func (app *Application) runServer() {
	cfg, err := config.New(app.configDir, buildinfo.Version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize configuration")
	}

	// Override with CLI flags if provided
	if app.dataDir != "" {
		os.Setenv("MAGNETAR__DATA_DIR", app.dataDir)
		cfg.SetDataDir(app.dataDir)
	}
	if app.logPath != "" {
		os.Setenv("MAGNETAR__LOG_PATH", app.logPath)
		cfg.Config.LogPath = app.logPath
	}

	cfg.ApplyLogConfig()

	log.Info().Str("version", buildinfo.Version).Msg("Starting magnetar")

	db, err := database.New(cfg.GetDatabasePath())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	magnetLinkStore := models.NewMagnetLinkStore(db)
	preferenceStore := models.NewSearchPreferenceStore(db)

	trackerClient := magnet.NewTrackerClient(cfg.Config.SearchURLTemplate, cfg.Config.SearchTimeout)

	var peers magnet.PeerSearcher = dht.NoopSession{}
	if cfg.Config.DhtFallbackEnabled {
		peers = dht.NewSession(cfg.Config.DhtTimeout)
	}

	loadPriorities := func(ctx context.Context) (magnet.Priorities, error) {
		prefs, err := preferenceStore.Load(ctx)
		if err != nil {
			return magnet.Priorities{}, err
		}
		return magnet.Priorities{
			Quality: prefs.QualityPriority,
			Voice:   prefs.VoicePriority,
			Size:    prefs.SizePriority,
		}, nil
	}

	resolver := magnet.NewResolver(
		trackerClient,
		peers,
		loadPriorities,
		cfg.Config.MagnetTrackers,
		cfg.Config.DhtFallbackEnabled,
	)

	autoSearchEnabled := func(ctx context.Context) bool {
		prefs, err := preferenceStore.Load(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load search preferences for auto search gate")
			return true
		}
		return prefs.AutoSearchEnabled
	}

	searchManager := search.NewManager(resolver, magnetLinkStore, autoSearchEnabled, cfg.Config.SearchWorkers)
	defer searchManager.Close()

	httpServer := api.NewServer(&api.Dependencies{
		Config:          cfg,
		SearchManager:   searchManager,
		PreferenceStore: preferenceStore,
	})

	errorChannel := make(chan error)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorChannel <- err
		}
	}()

	var metricsServer *metrics.Server
	if cfg.Config.MetricsEnabled {
		metricsServer = metrics.NewServer(cfg.Config.MetricsHost, cfg.Config.MetricsPort)
		metricsServer.Start()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Msgf("got signal %v, shutting down server", sig.String())
	case err := <-errorChannel:
		log.Error().Err(err).Msg("got unexpected error from server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("got error during metrics server shutdown")
		}
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("got error during graceful http shutdown")
		os.Exit(1)
	}
}
