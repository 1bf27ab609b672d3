package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, app *App) error
	FindByID(ctx context.Context, id snowflake.ID) (*App, error)
	ListByTenant(ctx context.Context, tenantID snowflake.ID, includeArchived bool) ([]App, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, id snowflake.ID) error

	CreateConfig(ctx context.Context, cfg *ModelConfig) error
	FindConfigByApp(ctx context.Context, appID snowflake.ID) (*ModelConfig, error)
	ReplaceConfig(ctx context.Context, cfg *ModelConfig) error
	DeleteConfigByApp(ctx context.Context, appID snowflake.ID) error
}
