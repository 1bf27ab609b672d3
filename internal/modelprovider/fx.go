package modelprovider

import (
	"github.com/craftwork/polaris/internal/modelprovider/repository"
	"github.com/craftwork/polaris/internal/modelprovider/service"
	"go.uber.org/fx"
)

var Module = fx.Module("modelprovider.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
