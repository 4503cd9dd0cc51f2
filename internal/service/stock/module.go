package stock

import "go.uber.org/fx"

// Module provides the stock service to Fx.
var Module = fx.Provide(NewService)
