package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Service interface {
	CreateApp(ctx context.Context, req CreateAppRequest) (*AppDetail, error)
	GetApp(ctx context.Context, appID, accountID snowflake.ID) (*AppDetail, error)
	ListApps(ctx context.Context, tenantID, accountID snowflake.ID, includeArchived bool) ([]App, error)
	UpdateApp(ctx context.Context, appID, accountID snowflake.ID, req UpdateAppRequest) (*App, error)
	UpdateAppConfig(ctx context.Context, appID, accountID snowflake.ID, req ModelConfigRequest) (*ModelConfig, error)
	ToggleSite(ctx context.Context, appID, accountID snowflake.ID, enable bool) (*App, error)
	ToggleAPI(ctx context.Context, appID, accountID snowflake.ID, enable bool) (*App, error)
	ArchiveApp(ctx context.Context, appID, accountID snowflake.ID) (*App, error)
	UnarchiveApp(ctx context.Context, appID, accountID snowflake.ID) (*App, error)
	DeleteApp(ctx context.Context, appID, accountID snowflake.ID) error
}

type CreateAppRequest struct {
	TenantID    snowflake.ID
	AccountID   snowflake.ID
	Name        string
	Description string
	Mode        Mode
	Icon        string
	IconBG      string
	ModelConfig *ModelConfigRequest
}

type UpdateAppRequest struct {
	Name        *string
	Description *string
	Icon        *string
	IconBG      *string
}

type ModelConfigRequest struct {
	Provider           string
	Model              string
	Config             datatypes.JSONMap
	OpeningStatement   string
	SuggestedQuestions datatypes.JSON
	PrePrompt          string
	UserInputForm      datatypes.JSON
}
