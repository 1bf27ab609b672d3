// Package domain contains core types for the tenant service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

// Covers implements the role hierarchy: owner > admin > member.
func (r Role) Covers(required Role) bool {
	switch r {
	case RoleOwner:
		return true
	case RoleAdmin:
		return required == RoleAdmin || required == RoleMember
	case RoleMember:
		return required == RoleMember
	default:
		return false
	}
}

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	default:
		return false
	}
}

type TenantStatus string

const (
	StatusActive    TenantStatus = "active"
	StatusSuspended TenantStatus = "suspended"
	StatusDeleted   TenantStatus = "deleted"
)

// Tenant represents an organization workspace.
type Tenant struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:varchar(100);not null;uniqueIndex:ux_tenants_name" json:"name"`
	Slug      string       `gorm:"type:text;not null;uniqueIndex:ux_tenants_slug" json:"slug"`
	Plan      Plan         `gorm:"type:varchar(20);not null;default:'free'" json:"plan"`
	Status    TenantStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

// TenantAccountJoin is the membership edge between a tenant and an account.
// The unique index closes the add-member check-then-write race at the
// storage layer.
type TenantAccountJoin struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"not null;index;uniqueIndex:ux_tenant_account,priority:1" json:"tenant_id"`
	AccountID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_tenant_account,priority:2" json:"account_id"`
	Role      Role         `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (TenantAccountJoin) TableName() string { return "tenant_account_joins" }
