// Package domain contains core types for the model provider service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ModelProvider is a tenant-scoped named credential set for an external AI
// provider. Credentials are sealed before they reach this struct.
type ModelProvider struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantID     snowflake.ID      `gorm:"not null;index" json:"tenant_id"`
	Name         string            `gorm:"type:varchar(100);not null" json:"name"`
	ProviderType string            `gorm:"type:varchar(20);not null" json:"provider_type"`
	Credentials  string            `gorm:"type:text;not null" json:"-"`
	IsActive     bool              `gorm:"not null;default:true;index" json:"is_active"`
	Config       datatypes.JSONMap `gorm:"type:json" json:"config"`
	QuotaConfig  datatypes.JSONMap `gorm:"type:json" json:"quota_config"`
	CreatedBy    snowflake.ID      `gorm:"not null" json:"created_by"`
	UpdatedBy    snowflake.ID      `json:"updated_by"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ModelProvider) TableName() string { return "model_providers" }
