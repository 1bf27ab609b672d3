package migration

import (
	accountdomain "github.com/craftwork/polaris/internal/account/domain"
	appdomain "github.com/craftwork/polaris/internal/app/domain"
	"github.com/craftwork/polaris/internal/config"
	providerdomain "github.com/craftwork/polaris/internal/modelprovider/domain"
	tenantdomain "github.com/craftwork/polaris/internal/tenant/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// mysql and sqlite deployments rely on schema sync from the models.
		return conn.AutoMigrate(
			&accountdomain.Account{},
			&tenantdomain.Tenant{},
			&tenantdomain.TenantAccountJoin{},
			&appdomain.App{},
			&appdomain.ModelConfig{},
			&providerdomain.ModelProvider{},
		)
	}),
)
