// Package domain contains core types for the app service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Mode string

const (
	ModeChat       Mode = "chat"
	ModeCompletion Mode = "completion"
	ModeAgent      Mode = "agent"
	ModeWorkflow   Mode = "workflow"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeChat, ModeCompletion, ModeAgent, ModeWorkflow:
		return true
	default:
		return false
	}
}

type AppStatus string

const (
	StatusNormal   AppStatus = "normal"
	StatusArchived AppStatus = "archived"
)

const (
	DefaultIcon           = "🤖"
	DefaultIconBackground = "#E0F2FE"
)

// App is an AI application owned by a tenant.
type App struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID       snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	Name           string       `gorm:"type:varchar(100);not null" json:"name"`
	Description    string       `gorm:"type:text" json:"description"`
	Mode           Mode         `gorm:"type:varchar(20);not null" json:"mode"`
	Icon           string       `gorm:"type:varchar(64);not null" json:"icon"`
	IconBackground string       `gorm:"type:varchar(16);not null" json:"icon_background"`
	EnableSite     bool         `gorm:"not null;default:true" json:"enable_site"`
	EnableAPI      bool         `gorm:"not null;default:true" json:"enable_api"`
	Status         AppStatus    `gorm:"type:varchar(20);not null;default:'normal';index" json:"status"`
	CreatedBy      snowflake.ID `gorm:"not null" json:"created_by"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (App) TableName() string { return "apps" }

// ModelConfig is the per-app LLM configuration, at most one row per app.
type ModelConfig struct {
	ID                 snowflake.ID      `gorm:"primaryKey" json:"id"`
	AppID              snowflake.ID      `gorm:"not null;uniqueIndex:ux_app_model_configs_app" json:"app_id"`
	Provider           string            `gorm:"type:varchar(100)" json:"provider"`
	Model              string            `gorm:"type:varchar(100)" json:"model"`
	Config             datatypes.JSONMap `gorm:"type:json" json:"config"`
	OpeningStatement   string            `gorm:"type:text" json:"opening_statement"`
	SuggestedQuestions datatypes.JSON    `gorm:"type:json" json:"suggested_questions"`
	PrePrompt          string            `gorm:"type:text" json:"pre_prompt"`
	UserInputForm      datatypes.JSON    `gorm:"type:json" json:"user_input_form"`
	CreatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ModelConfig) TableName() string { return "app_model_configs" }

// AppDetail bundles an app with its model config, which may be nil.
type AppDetail struct {
	App         *App         `json:"app"`
	ModelConfig *ModelConfig `json:"model_config,omitempty"`
}
