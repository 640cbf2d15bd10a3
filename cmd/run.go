// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pathwatch/pathwatch/internal/logger"
	"github.com/pathwatch/pathwatch/pkg/config"
	"github.com/pathwatch/pathwatch/pkg/service"
)

// NewCmdRun creates a new run command
func NewCmdRun() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the pathwatch service",
		Long: "Run the pathwatch service: starts the configured monitors, keeps them aligned\n" +
			"with the monitor file and serves the API.",
		RunE: run,
	}
}

// run is the entry point to start the service
func run(cmd *cobra.Command, _ []string) error {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()

	if err := cfg.Validate(ctx); err != nil {
		return err
	}

	err := service.New(cfg).Run(ctx)
	if err != nil && !errors.Is(err, service.ErrFinalShutdown) {
		return err
	}
	return nil
}
