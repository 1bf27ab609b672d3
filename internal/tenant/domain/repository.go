package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// MemberListItem projects a membership row joined with its account.
type MemberListItem struct {
	AccountID snowflake.ID `json:"account_id"`
	Email     string       `json:"email"`
	Name      string       `json:"name"`
	Role      Role         `json:"role"`
	JoinedAt  time.Time    `json:"joined_at"`
}

// TenantListItem projects a tenant joined with the account's role in it.
type TenantListItem struct {
	ID        snowflake.ID `json:"id"`
	Name      string       `json:"name"`
	Slug      string       `json:"slug"`
	Plan      Plan         `json:"plan"`
	Status    TenantStatus `json:"status"`
	Role      Role         `json:"role"`
	CreatedAt time.Time    `json:"created_at"`
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateTenant(ctx context.Context, tenant *Tenant) error
	FindByID(ctx context.Context, id snowflake.ID) (*Tenant, error)
	NameExists(ctx context.Context, name string) (bool, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error

	AddMember(ctx context.Context, join *TenantAccountJoin) error
	RemoveMember(ctx context.Context, tenantID, accountID snowflake.ID) error
	UpdateMemberRole(ctx context.Context, tenantID, accountID snowflake.ID, role Role) error
	MemberRole(ctx context.Context, tenantID, accountID snowflake.ID) (Role, bool, error)
	ListMembers(ctx context.Context, tenantID snowflake.ID) ([]MemberListItem, error)
	ListTenantsByAccount(ctx context.Context, accountID snowflake.ID) ([]TenantListItem, error)
}
