/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/friendsincode/matchday/internal/config"
	"github.com/friendsincode/matchday/internal/logging"
	"github.com/friendsincode/matchday/internal/server"
	"github.com/friendsincode/matchday/internal/telemetry"
	"github.com/friendsincode/matchday/internal/version"
)

var (
	logger    zerolog.Logger
	logCloser io.Closer
	cfg       *config.Config

	// appFs is where batch and calendar files are read from and written to.
	appFs afero.Fs = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:           "matchday",
	Short:         "Matchday - priority-driven fixture and activity scheduler",
	Long:          "Matchday places prioritized activities on shared resources and prioritized matches on a calendar under capacity and rest-gap rules.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Matchday API server",
	Long:  "Start the HTTP API that stages candidates and runs the schedulers",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, logCloser = logging.SetupWithOptions(logging.Options{
		Environment: cfg.Environment,
		File:        cfg.LogFile,
		MaxSizeMB:   cfg.LogMaxSizeMB,
		MaxBackups:  5,
		MaxAgeDays:  30,
	})
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Str("version", version.Version).Msg("Matchday starting")

	tracerProvider, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    telemetry.DefaultServiceName,
		ServiceVersion: version.Version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TracingSampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown tracer provider")
		}
	}()

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := srv.Run(ctx)
	logger.Info().Msg("shutting down gracefully...")
	if err := srv.Close(); err != nil {
		logger.Error().Err(err).Msg("shutdown cleanup failed")
	}
	if runErr != nil {
		return runErr
	}

	logger.Info().Msg("Matchday stopped")
	return nil
}
