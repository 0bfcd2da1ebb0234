package vendor

import (
	"github.com/invosync/invosync/internal/vendors/repository"
	"github.com/invosync/invosync/internal/vendors/service"
	"go.uber.org/fx"
)

var Module = fx.Module("vendor.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
