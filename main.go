// Package main provides the entry point for the VitaCare voice assistant.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/fx"

	"github.com/Raikerian/vitacare-voice/internal/app"
	"github.com/Raikerian/vitacare-voice/internal/catalog"
	"github.com/Raikerian/vitacare-voice/internal/config"
	"github.com/Raikerian/vitacare-voice/internal/device"
	"github.com/Raikerian/vitacare-voice/internal/infrastructure"
	"github.com/Raikerian/vitacare-voice/internal/live"
	"github.com/Raikerian/vitacare-voice/internal/session"
	"github.com/Raikerian/vitacare-voice/internal/tools"
	pkginfra "github.com/Raikerian/vitacare-voice/pkg/infrastructure"
)

const (
	startTimeout    = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// modules lists every Fx module of the assistant.
func modules(configPath string) []fx.Option {
	return []fx.Option{
		// Core modules
		config.Module,
		infrastructure.LoggerModule,

		// Devices and the remote assistant
		device.Module,
		live.Module,

		// Domain modules
		catalog.Module,
		tools.Module,
		session.Module,

		fx.Supply(config.Path(configPath)),

		// Configure Fx to use our Zap logger for its own internal logging
		fx.WithLogger(pkginfra.NewFxLoggerAdapter),
	}
}

func main() {
	configPath := pflag.StringP("config", "c", "config.yaml", "Path to the YAML configuration file")
	pflag.Parse()

	application := app.New(modules(*configPath)...)

	startCtx, cancel := context.WithTimeout(context.Background(), startTimeout)
	err := application.Start(startCtx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}

	// Ctrl+C ends the session; so does a session that never connects.
	sig := <-application.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	err = application.Stop(shutdownCtx)
	cancel()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		os.Exit(1)
	}

	os.Exit(sig.ExitCode)
}
