package invoicedoc

import "go.uber.org/fx"

var Module = fx.Module("invoicedoc",
	fx.Provide(NewAssembler),
)
