package tenant

import (
	"github.com/craftwork/polaris/internal/tenant/repository"
	"github.com/craftwork/polaris/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
