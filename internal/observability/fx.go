package observability

import (
	"github.com/craftwork/polaris/internal/config"
	"github.com/craftwork/polaris/internal/observability/logger"
	"github.com/craftwork/polaris/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		provideLoggerConfig,
		logger.New,
		metrics.NewHTTPMetrics,
	),
)

func provideLoggerConfig(cfg config.Config) logger.Config {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return logger.Config{
		ServiceName: cfg.AppName,
		Environment: cfg.Environment,
		Version:     cfg.AppVersion,
		Level:       level,
	}
}
