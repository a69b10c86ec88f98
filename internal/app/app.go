// Package app provides the main application structure and lifecycle management.
package app

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Application represents the main application with its lifecycle.
type Application struct {
	app *fx.App
}

// Options provides the Assistant and registers its lifecycle hooks.
func Options() []fx.Option {
	return []fx.Option{
		fx.Provide(
			func() *Renderer { return NewRenderer(os.Stdout) },
			NewAssistant,
		),
		fx.Invoke(registerLifecycleHooks),
	}
}

// New creates a new Application with the provided modules and options.
func New(modules ...fx.Option) *Application {
	return &Application{
		app: fx.New(append(modules, Options()...)...),
	}
}

// Start runs every OnStart hook. Construction errors surface here too.
func (a *Application) Start(ctx context.Context) error {
	return a.app.Start(ctx)
}

// Wait reports the first shutdown request: an OS signal or a call to
// fx.Shutdowner from inside the application.
func (a *Application) Wait() <-chan fx.ShutdownSignal {
	return a.app.Wait()
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	return a.app.Stop(ctx)
}

func registerLifecycleHooks(lc fx.Lifecycle, a *Assistant, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting VitaCare voice session")

			if err := a.Start(); err != nil {
				logger.Error("Failed to start session", zap.Error(err))

				return err
			}

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Ending VitaCare voice session")

			if err := a.Stop(ctx); err != nil {
				logger.Error("Failed to end session cleanly", zap.Error(err))

				return err
			}

			logger.Info("Session ended")

			return nil
		},
	})
}
