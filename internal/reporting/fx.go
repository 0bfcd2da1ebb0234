package reporting

import (
	"github.com/invosync/invosync/internal/reporting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reporting.service",
	fx.Provide(service.New),
)
