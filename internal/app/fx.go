package app

import (
	"github.com/craftwork/polaris/internal/app/repository"
	"github.com/craftwork/polaris/internal/app/service"
	"go.uber.org/fx"
)

var Module = fx.Module("app.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
