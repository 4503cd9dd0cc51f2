package finance

import "go.uber.org/fx"

// Module provides the finance service to Fx.
var Module = fx.Provide(NewService)
