package company

import "go.uber.org/fx"

// Module provides the company repository to Fx.
var Module = fx.Provide(NewRepository)
