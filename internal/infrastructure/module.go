// Package infrastructure provides the process logger as an Fx module.
package infrastructure

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Raikerian/vitacare-voice/internal/config"
)

// LoggerModule provides logging infrastructure.
var LoggerModule = fx.Module("logger",
	fx.Provide(NewZapLogger),
)

// NewZapLoggerParams holds dependencies for NewZapLogger.
type NewZapLoggerParams struct {
	fx.In
	Cfg *config.Config
	LC  fx.Lifecycle
}

// NewZapLogger builds the process logger. "debug" selects the human
// readable development encoder; every other level logs JSON.
func NewZapLogger(params NewZapLoggerParams) (*zap.Logger, error) {
	zapConfig, err := zapConfigFor(params.Cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create zap logger: %w", err)
	}
	logger = logger.Named("vitacare")

	params.LC.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Syncing stderr fails on some terminals; nothing useful to do about it.
			_ = logger.Sync()

			return nil
		},
	})

	return logger, nil
}

func zapConfigFor(level string) (zap.Config, error) {
	if level == "debug" {
		return zap.NewDevelopmentConfig(), nil
	}

	zapConfig := zap.NewProductionConfig()
	if level == "" {
		return zapConfig, nil
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zap.Config{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)

	return zapConfig, nil
}
