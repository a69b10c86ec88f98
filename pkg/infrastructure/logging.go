// Package infrastructure holds process-wide plumbing shared by the commands.
package infrastructure

import (
	"strings"

	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// FxLoggerAdapter routes fx lifecycle events into zap with structured fields.
type FxLoggerAdapter struct {
	logger *zap.Logger
}

// NewFxLoggerAdapter returns an fxevent.Logger writing to logger.
func NewFxLoggerAdapter(logger *zap.Logger) fxevent.Logger {
	return &FxLoggerAdapter{logger: logger.Named("fx")}
}

// LogEvent implements fxevent.Logger. Successful wiring steps log at debug,
// failures at error.
func (a *FxLoggerAdapter) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		a.logger.Debug("OnStart hook executing",
			zap.String("callee", e.FunctionName),
			zap.String("caller", e.CallerName))
	case *fxevent.OnStartExecuted:
		a.hook("OnStart", e.FunctionName, e.CallerName, e.Runtime.String(), e.Err)
	case *fxevent.OnStopExecuting:
		a.logger.Debug("OnStop hook executing",
			zap.String("callee", e.FunctionName),
			zap.String("caller", e.CallerName))
	case *fxevent.OnStopExecuted:
		a.hook("OnStop", e.FunctionName, e.CallerName, e.Runtime.String(), e.Err)
	case *fxevent.Supplied:
		a.result("Supplied", e.Err, zap.String("type", e.TypeName))
	case *fxevent.Provided:
		a.result("Provided", e.Err, zap.String("types", strings.Join(e.OutputTypeNames, ", ")))
	case *fxevent.Invoking:
		a.logger.Debug("Invoking", zap.String("function", e.FunctionName))
	case *fxevent.Invoked:
		a.result("Invoked", e.Err, zap.String("function", e.FunctionName))
	case *fxevent.Stopping:
		a.logger.Info("Received signal", zap.String("signal", strings.ToUpper(e.Signal.String())))
	case *fxevent.Stopped:
		a.lifecycle("Stopped", e.Err)
	case *fxevent.RollingBack:
		a.logger.Error("Start failed, rolling back", zap.Error(e.StartErr))
	case *fxevent.RolledBack:
		a.lifecycle("Rolled back", e.Err)
	case *fxevent.Started:
		a.lifecycle("Started", e.Err)
	case *fxevent.LoggerInitialized:
		a.result("Logger initialized", e.Err, zap.String("constructor", e.ConstructorName))
	}
}

func (a *FxLoggerAdapter) hook(kind, callee, caller, runtime string, err error) {
	fields := []zap.Field{zap.String("callee", callee), zap.String("caller", caller)}
	if err != nil {
		a.logger.Error(kind+" hook failed", append(fields, zap.Error(err))...)
		return
	}
	a.logger.Debug(kind+" hook executed", append(fields, zap.String("runtime", runtime))...)
}

func (a *FxLoggerAdapter) result(msg string, err error, fields ...zap.Field) {
	if err != nil {
		a.logger.Error(msg+" failed", append(fields, zap.Error(err))...)
		return
	}
	a.logger.Debug(msg, fields...)
}

func (a *FxLoggerAdapter) lifecycle(msg string, err error) {
	if err != nil {
		a.logger.Error(msg, zap.Error(err))
		return
	}
	a.logger.Info(msg)
}
