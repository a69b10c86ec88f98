package tools

import (
	"go.uber.org/fx"
)

// Module provides the tool Executor. A SearchFunc must be supplied by the host.
var Module = fx.Module("tools",
	fx.Provide(NewExecutor),
)
