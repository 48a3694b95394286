// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/qre-core/internal/app"
	"github.com/MKhiriev/qre-core/internal/config"
	"github.com/MKhiriev/qre-core/internal/container"
	"github.com/MKhiriev/qre-core/internal/logger"
	"github.com/MKhiriev/qre-core/internal/service"
	"github.com/MKhiriev/qre-core/internal/store"
	"github.com/MKhiriev/qre-core/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

var (
	flagConfig *config.StructuredConfig
	cfg        *config.StructuredConfig
	log        *logger.Logger
	services   *service.Services
)

var rootCmd = &cobra.Command{
	Use:   "qre",
	Short: "Encrypt files with a password-protected vault key",
	Long: `qre keeps a vault Master Key protected by a password and a recovery code,
and uses it to lock and unlock files.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	flagConfig = config.BindFlags(rootCmd.PersistentFlags())
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.GetStructuredConfig(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log = logger.NewConsoleLogger("qre", os.Stderr)
	if err = logger.SetLevel(cfg.Log.Level); err != nil {
		return err
	}
	services = service.NewServices(store.NewStorages(log), cfg, log)
	return nil
}

// commandContext is cancelled on SIGINT/SIGTERM and after the configured
// operation timeout.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if cfg.Workers.OperationTimeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Workers.OperationTimeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		if hint := app.Describe(err); hint != "" {
			printWarning("%s", hint)
		}
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print build information",
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(*cobra.Command, []string) {
		printBuildInfo(models.NewAppBuildInfo(buildVersion, buildDate, buildCommit,
			container.MinSupportedVersion, container.MaxSupportedVersion))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func printBuildInfo(info models.AppBuildInfo) {
	fmt.Printf("Build version: %s\n", info.BuildVersion())
	fmt.Printf("Build date: %s\n", info.BuildDate())
	fmt.Printf("Build commit: %s\n", info.BuildCommit())
	fmt.Printf("Container formats: %s\n", info.Formats())
}
