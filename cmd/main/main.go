package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"catalog/crawler/internal/config"
	"catalog/crawler/internal/container"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Errorf("Application exited with error: %v", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawler",
		Short: "Crawl a product catalog into JSON, CSV and database artifacts",
		Long: `crawler walks the category tree of an e-commerce catalog breadth-first,
paginates every leaf category and stores the normalized product records.

Intermediate snapshots are written while the crawl runs; use export-checkpoint
to turn the last snapshot into final artifacts after an interrupted run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			log.Info("Starting catalog crawler...")

			app, err := container.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer app.Close()

			if err := app.Run(cmd.Context()); err != nil {
				return err
			}

			log.Info("Application finished successfully")
			return nil
		},
	}

	cmd.PersistentFlags().String("config", "", "Path to the YAML config file (default ./config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(newExportCheckpointCmd())

	return cmd
}

func newExportCheckpointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-checkpoint",
		Short: "Write final artifacts from the last checkpoint snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			app, err := container.NewForExport(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer app.Close()

			return app.ExportCheckpoint(cmd.Context())
		},
	}
}

// loadConfig reads the configuration and applies the logging settings
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if override, _ := cmd.Flags().GetString("log-level"); override != "" {
		cfg.Logging.Level = override
	}
	if err := setupLogging(cfg.Logging); err != nil {
		return nil, err
	}

	log.Debug("Configuration loaded successfully")
	return cfg, nil
}

func setupLogging(cfg config.LoggingConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
