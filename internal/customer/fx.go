package customer

import (
	"github.com/invosync/invosync/internal/customer/repository"
	"github.com/invosync/invosync/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
