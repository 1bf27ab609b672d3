package account

import (
	"github.com/craftwork/polaris/internal/account/repository"
	"github.com/craftwork/polaris/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
