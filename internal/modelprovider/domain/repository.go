package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, provider *ModelProvider) error
	FindByID(ctx context.Context, id snowflake.ID) (*ModelProvider, error)
	ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]ModelProvider, error)
	// ActiveNameExists checks name uniqueness among active rows only,
	// optionally excluding one row.
	ActiveNameExists(ctx context.Context, tenantID snowflake.ID, name string, excludeID snowflake.ID) (bool, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, id snowflake.ID) error
}
