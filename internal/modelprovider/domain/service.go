package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork/polaris/internal/modelruntime"
	"gorm.io/datatypes"
)

type Service interface {
	AddProvider(ctx context.Context, req AddProviderRequest) (*ModelProvider, error)
	GetProvider(ctx context.Context, providerID, accountID snowflake.ID) (*ModelProvider, error)
	ListProviders(ctx context.Context, tenantID, accountID snowflake.ID) ([]ModelProvider, error)
	UpdateProvider(ctx context.Context, providerID, accountID snowflake.ID, req UpdateProviderRequest) (*ModelProvider, error)
	DeleteProvider(ctx context.Context, providerID, accountID snowflake.ID) error
	ActivateProvider(ctx context.Context, providerID, accountID snowflake.ID) (*ModelProvider, error)
	DeactivateProvider(ctx context.Context, providerID, accountID snowflake.ID) (*ModelProvider, error)
	TestConnection(ctx context.Context, providerID, accountID snowflake.ID) (*TestResult, error)
}

type AddProviderRequest struct {
	TenantID     snowflake.ID
	Name         string
	ProviderType string
	Credentials  modelruntime.Credentials
	Config       datatypes.JSONMap
	QuotaConfig  datatypes.JSONMap
	CreatedBy    snowflake.ID
}

type UpdateProviderRequest struct {
	Name        *string
	Credentials modelruntime.Credentials
	Config      datatypes.JSONMap
	QuotaConfig datatypes.JSONMap
}

// TestResult is the swallowed outcome of a live connection test. Adapter
// failures land here instead of propagating as errors.
type TestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
