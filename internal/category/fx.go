package category

import (
	"github.com/invosync/invosync/internal/category/repository"
	"github.com/invosync/invosync/internal/category/service"
	"go.uber.org/fx"
)

var Module = fx.Module("category.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
