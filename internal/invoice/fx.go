package invoice

import (
	"github.com/invosync/invosync/internal/invoice/repository"
	"github.com/invosync/invosync/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
